package cli

import (
	"sort"
	"strings"
)

// DeriveEnv builds a child environment from base: keys in strip are removed and
// non-empty inject entries are appended unless base already sets them.
func DeriveEnv(base []string, strip []string, inject map[string]string) []string {
	drop := make(map[string]bool, len(strip))
	for _, k := range strip {
		drop[k] = true
	}

	env := make([]string, 0, len(base)+len(inject))
	present := make(map[string]bool, len(base))
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		if drop[key] {
			continue
		}
		if value != "" {
			present[key] = true
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(inject))
	for k := range inject {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if inject[k] == "" || present[k] || drop[k] {
			continue
		}
		env = append(env, k+"="+inject[k])
	}
	return env
}

package tools

import (
	"errors"
	"testing"
)

func TestValidateGitRef(t *testing.T) {
	valid := []string{"HEAD", "main", "HEAD~1", "HEAD^", "origin/main", "v1.2.3", "abc123", "feature/x-y_z", "HEAD^{commit}"}
	for _, ref := range valid {
		if err := ValidateGitRef(ref); err != nil {
			t.Fatalf("expected %q to be valid, got %v", ref, err)
		}
	}

	invalid := []string{"", "--output=/tmp/x", "-p", "main;rm -rf /", "HEAD HEAD", "$(whoami)", "a|b", "ref@{1}"}
	for _, ref := range invalid {
		err := ValidateGitRef(ref)
		if !errors.Is(err, ErrInvalidGitRef) {
			t.Fatalf("expected %q to be rejected, got %v", ref, err)
		}
	}
}

func TestValidateFilePath(t *testing.T) {
	valid := []string{"src/main.go", "./a.ts", "/abs/path/file.txt", "dir with space/file.md", "a-b_c.d"}
	for _, p := range valid {
		if err := ValidateFilePath(p); err != nil {
			t.Fatalf("expected %q to be valid, got %v", p, err)
		}
	}

	invalid := []string{"", "-rf", "--", "a;b", "a|b", "a&b", "$HOME", "`id`", `a\b`, "a(b)", "a{b}", "a<b", "a>b", "a!b", "a#b", "a'b", `a"b`, "a\x00b"}
	for _, p := range invalid {
		if err := ValidateFilePath(p); !errors.Is(err, ErrInvalidFilePath) {
			t.Fatalf("expected %q to be rejected, got %v", p, err)
		}
	}
}

package tools

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidGitRef   = errors.New("invalid git ref")
	ErrInvalidFilePath = errors.New("invalid file path")
)

var (
	safeRefPattern  = regexp.MustCompile(`^[a-zA-Z0-9_./~^{}-]+$`)
	unsafePathChars = regexp.MustCompile("[;|&$`\\\\(){}<>!#'\"]")
)

// ValidateGitRef accepts refs made of the allow-listed characters that cannot be
// mistaken for an option.
func ValidateGitRef(ref string) error {
	if ref == "" || strings.HasPrefix(ref, "-") || !safeRefPattern.MatchString(ref) {
		return fmt.Errorf("%w: %s", ErrInvalidGitRef, ref)
	}
	return nil
}

// ValidateFilePath rejects paths that could be read as an option or that carry
// shell metacharacters.
func ValidateFilePath(p string) error {
	if p == "" || strings.HasPrefix(p, "-") || strings.ContainsRune(p, 0) || unsafePathChars.MatchString(p) {
		return fmt.Errorf("%w: %s", ErrInvalidFilePath, p)
	}
	return nil
}

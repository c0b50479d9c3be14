package tools

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxContextFileBytes is the largest file accepted as context.
	MaxContextFileBytes = 200_000
	// binarySniffBytes is how much of a file is scanned for a NUL byte.
	binarySniffBytes = 8192
)

var (
	ErrFilesNotFound = errors.New("files not found")
	ErrSensitiveFile = errors.New("blocked sensitive file")
	ErrFileTooLarge  = errors.New("file exceeds max context size")
	ErrBinaryFile    = errors.New("binary file is not allowed in context")
)

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|/)\.env(\..*)?$`),
	regexp.MustCompile(`(?i)(^|/)\.git(/|$)`),
	regexp.MustCompile(`(?i)(^|/)\.npmrc$`),
	regexp.MustCompile(`(?i)(^|/)\.netrc$`),
	regexp.MustCompile(`(?i)(^|/)id_(rsa|dsa|ecdsa|ed25519)$`),
	regexp.MustCompile(`(?i)\.(pem|p12|pfx|key)$`),
}

// ContextFile is a validated file and its contents.
type ContextFile struct {
	// Path is the path as the caller supplied it.
	Path    string
	Content string
}

// IsSensitivePath reports whether p names a credential or repository-internal file.
// Backslashes are treated as separators.
func IsSensitivePath(p string) bool {
	normalized := strings.ReplaceAll(p, `\`, "/")
	for _, re := range sensitivePatterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// ResolvePaths returns the absolute form of each path.
func ResolvePaths(files []string) ([]string, error) {
	out := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// ValidateContextFiles checks that every file exists, is not sensitive, fits the size
// ceiling and is not binary. All missing files are reported in one error.
func ValidateContextFiles(files []string) error {
	_, err := loadContextFiles(files, false)
	return err
}

// ReadContextFiles validates files and returns their contents in input order.
func ReadContextFiles(files []string) ([]ContextFile, error) {
	return loadContextFiles(files, true)
}

func loadContextFiles(files []string, keep bool) ([]ContextFile, error) {
	resolved, err := ResolvePaths(files)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, abs := range resolved {
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, abs)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrFilesNotFound, strings.Join(missing, ", "))
	}

	var out []ContextFile
	if keep {
		out = make([]ContextFile, 0, len(files))
	}
	for i, original := range files {
		content, err := checkContextFile(original, resolved[i])
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, ContextFile{Path: original, Content: string(content)})
		}
	}
	return out, nil
}

func checkContextFile(original, abs string) ([]byte, error) {
	candidates := []string{original, abs}
	if real, err := filepath.EvalSymlinks(abs); err == nil && real != abs {
		candidates = append(candidates, real)
	}
	for _, c := range candidates {
		if IsSensitivePath(c) {
			return nil, fmt.Errorf("%w: %s", ErrSensitiveFile, original)
		}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", original, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrInvalidFilePath, original)
	}
	if info.Size() > MaxContextFileBytes {
		return nil, fmt.Errorf("%w (%d bytes): %s", ErrFileTooLarge, MaxContextFileBytes, original)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", original, err)
	}
	defer f.Close()

	// read one byte past the ceiling in case the file grew after stat
	content, err := io.ReadAll(io.LimitReader(f, MaxContextFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", original, err)
	}
	if len(content) > MaxContextFileBytes {
		return nil, fmt.Errorf("%w (%d bytes): %s", ErrFileTooLarge, MaxContextFileBytes, original)
	}
	sniff := content
	if len(sniff) > binarySniffBytes {
		sniff = sniff[:binarySniffBytes]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrBinaryFile, original)
	}
	return content, nil
}

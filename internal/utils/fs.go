package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// invalidCharsRegex matches characters not allowed in filenames
var invalidCharsRegex = regexp.MustCompile(`[<>:"|?*\\/]`)

// multipleSeparatorsRegex matches runs of spaces, dashes and underscores
var multipleSeparatorsRegex = regexp.MustCompile(`[-_\s]+`)

// SanitizeFilename sanitizes a string for use as a filename
func SanitizeFilename(name string) string {
	name = invalidCharsRegex.ReplaceAllString(name, "-")
	name = multipleSeparatorsRegex.ReplaceAllString(name, "-")
	return strings.Trim(name, "- ")
}

// TempFilePath returns a path in dir (or the system temp directory when
// dir is empty) that is unique per request. Artifact writes must never
// reuse names across requests: a failed request must not leave a file
// that a later request could mistake for its own output.
func TempFilePath(dir, filename string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	name := uuid.NewString() + "-" + SanitizeFilename(filename)
	return filepath.Join(dir, name)
}

// ExpandPath expands a leading ~ to the user home directory
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"regexp"
	"strings"
)

const maxFilenameLen = 150

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a paper title into a filesystem-safe name stem:
// characters that are unsafe on common filesystems are stripped, whitespace
// runs collapse to a single underscore, and the result is truncated to 150
// characters. The caller appends the extension.
func SanitizeFilename(title string) string {
	name := forbiddenChars.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = whitespaceRuns.ReplaceAllString(name, "_")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name
}

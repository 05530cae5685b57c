// Package confirm holds the typed-phrase gates for destructive actions.
package confirm

import "strings"

const (
	FilePhrase   = "delete file"
	FolderPhrase = "delete folder"
)

// Matches reports whether input satisfies the required phrase: exact match
// after trimming, case-insensitive. "Delete File" and " delete file " pass
// for "delete file"; "delete the file" does not.
func Matches(phrase, input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(phrase))
}

package upload

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces name to a safe ASCII base name: accents are
// folded, path separators and whitespace become underscores and anything
// outside [A-Za-z0-9_.-] is dropped. Leading dots and underscores are
// stripped so the result is never hidden or a relative path. The result may
// be empty.
func SanitizeFilename(name string) string {
	// Windows-style paths arrive from some browsers.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		}
	}
	out := unsafeFilenameChars.ReplaceAllString(b.String(), "")
	return strings.TrimLeft(out, "._")
}

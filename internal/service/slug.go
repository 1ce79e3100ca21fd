package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 60

// Slugify lower-cases s, folds accents and collapses every run of
// non-alphanumeric characters into a single "-".
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range norm.NFKD.String(strings.ToLower(strings.TrimSpace(s))) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.Trim(out[:maxSlugLen], "-")
	}
	return out
}

// uniqueSlug returns Slugify(name), or fallback when that is empty, with a
// "-2", "-3", ... suffix until taken reports it free.
func uniqueSlug(ctx context.Context, name, fallback string, taken func(context.Context, string) (bool, error)) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fallback
	}
	candidate := base
	for i := 2; i < 1000; i++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", name)
}

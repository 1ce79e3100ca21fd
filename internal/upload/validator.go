// Package upload validates and stores event media files.
package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"event-site/internal/config"
)

// Kind is the type of media being uploaded.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Dir returns the directory, relative to the uploads root, for files of k.
func (k Kind) Dir() string {
	return "uploads/" + string(k) + "s"
}

// ErrRejected is wrapped by every validation failure.
var ErrRejected = errors.New("upload rejected")

// RejectionError explains why a file was not accepted.
type RejectionError struct {
	Kind   Kind
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is match ErrRejected.
func (e *RejectionError) Unwrap() error {
	return ErrRejected
}

// Rule is the accepted extension set and size cap for a Kind.
type Rule struct {
	Extensions []string
	MaxBytes   int64
	Required   bool
}

// Validator checks uploads before anything is written to disk.
type Validator struct {
	rules map[Kind]Rule
}

// NewValidator builds a Validator from upload configuration. Images are
// required; videos are optional.
func NewValidator(cfg config.UploadsConfig) *Validator {
	return &Validator{rules: map[Kind]Rule{
		KindImage: {Extensions: cfg.ImageExtensions, MaxBytes: cfg.MaxImageBytes, Required: true},
		KindVideo: {Extensions: cfg.VideoExtensions, MaxBytes: cfg.MaxVideoBytes, Required: false},
	}}
}

// Validate accepts or rejects fh as a file of kind k. A nil fh is accepted
// only for optional kinds. Rejections are *RejectionError values.
func (v *Validator) Validate(k Kind, fh *multipart.FileHeader) error {
	rule, ok := v.rules[k]
	if !ok {
		return fmt.Errorf("unknown upload kind %q", k)
	}
	if fh == nil || fh.Filename == "" {
		if rule.Required {
			return &RejectionError{Kind: k, Reason: fmt.Sprintf("No %s file provided", k)}
		}
		return nil
	}
	if !allowedExtension(fh.Filename, rule.Extensions) {
		return &RejectionError{Kind: k, Reason: fmt.Sprintf(
			"Invalid %s format. Allowed formats: %s", k, strings.Join(rule.Extensions, ", "))}
	}
	if rule.MaxBytes > 0 && fh.Size > rule.MaxBytes {
		return &RejectionError{Kind: k, Reason: fmt.Sprintf(
			"File size exceeds maximum limit of %dMB", rule.MaxBytes/(1<<20))}
	}
	return nil
}

// allowedExtension reports whether filename ends in one of exts, ignoring case.
// A name that is only an extension, such as ".png", has no base and is refused.
func allowedExtension(filename string, exts []string) bool {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return false
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, allowed := range exts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

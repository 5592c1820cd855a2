package validator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docforge/uploader/internal/models"
)

// Config holds the tunable validation limits.
type Config struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// DefaultConfig returns the stock limits: 10 MiB and the document
// extensions the pipeline understands.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:       10 * 1024 * 1024,
		AllowedExtensions: []string{".txt", ".md", ".pdf", ".doc", ".docx", ".html", ".htm"},
	}
}

// ValidationError is one failed rule.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Result collects every failed rule for one descriptor. Rules are evaluated
// independently so a single pass reports all problems at once.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// Messages returns the error messages in rule order.
func (r Result) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// UploadValidator checks file descriptors against the configured limits.
type UploadValidator struct {
	config *Config
}

// New creates a validator; a nil config selects the defaults.
func New(config *Config) *UploadValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &UploadValidator{config: config}
}

// Validate runs every rule against the descriptor and reports all failures.
func (v *UploadValidator) Validate(file models.FileDescriptor) Result {
	var errs []ValidationError

	if file.Size > v.config.MaxFileSize {
		errs = append(errs, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file size %d exceeds maximum of %d bytes", file.Size, v.config.MaxFileSize),
			Field:   "size",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if !v.IsAllowedExtension(ext) {
		errs = append(errs, ValidationError{
			Code:    "UNSUPPORTED_FILE_TYPE",
			Message: fmt.Sprintf("file type %q is not supported; supported types: %s", ext, strings.Join(v.config.AllowedExtensions, ", ")),
			Field:   "extension",
		})
	}

	if strings.TrimSpace(file.Name) == "" {
		errs = append(errs, ValidationError{
			Code:    "EMPTY_FILE_NAME",
			Message: "file name must not be empty",
			Field:   "name",
		})
	}

	return Result{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// IsAllowedExtension reports whether ext (including the leading dot) is in
// the configured supported set.
func (v *UploadValidator) IsAllowedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range v.config.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// MaxFileSize exposes the configured size ceiling.
func (v *UploadValidator) MaxFileSize() int64 {
	return v.config.MaxFileSize
}

// AllowedExtensions exposes the configured supported set.
func (v *UploadValidator) AllowedExtensions() []string {
	out := make([]string, len(v.config.AllowedExtensions))
	copy(out, v.config.AllowedExtensions)
	return out
}

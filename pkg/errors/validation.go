package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a human-assigned name (component or document name).
// Names may be empty; non-empty names are checked for safety.
//
// The validation rules are intentionally conservative:
//   - No control characters
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return nil
}

// componentTypeRegex matches registered component type names such as
// "add" or "math.range".
var componentTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// ValidateComponentType validates a component type identifier.
func ValidateComponentType(typ string) error {
	if typ == "" {
		return New(ErrCodeUnknownType, "component type cannot be empty")
	}
	if !componentTypeRegex.MatchString(typ) {
		return New(ErrCodeUnknownType, "invalid component type: %q", typ)
	}
	return nil
}

// ValidateKey validates a store key for safety. Keys end up in file names
// and Redis keys, so they must not allow path traversal.
//
// Validation rules:
//   - Key cannot be empty
//   - Maximum length of 256 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "key cannot be empty")
	}
	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "key too long (max 256 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "key contains invalid characters")
		}
	}
	if strings.ContainsAny(key, "/\\") {
		return New(ErrCodeInvalidInput, "key cannot contain path separators")
	}
	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidInput, "key cannot contain path traversal sequences (..)")
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in an
// API request.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateStoreURL validates a store location. Supported schemes are
// file, redis, rediss, mongodb, mongodb+srv and null.
func ValidateStoreURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "store URL cannot be empty")
	}
	for _, scheme := range []string{"file://", "redis://", "rediss://", "mongodb://", "mongodb+srv://", "null://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeUnsupported, "unsupported store URL: %q", rawURL)
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// KVPair is a single stored record.
// Modified is kept by storage as metadata and never travels over HTTP.
type KVPair[V any] struct {
	Key      string
	Value    V
	Modified time.Time
}

// ValidateKey reports whether key can be stored and later addressed as
// the single path segment of /store/{key}. Anything a router would split
// or clean is rejected.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return ValidationError{Field: "key", Reason: "must not be empty"}
	case strings.Contains(key, "/"):
		return ValidationError{Field: "key", Reason: "must not contain '/'"}
	case key == "." || key == "..":
		return ValidationError{Field: "key", Reason: fmt.Sprintf("must not be %q", key)}
	}
	return nil
}

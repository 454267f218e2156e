package ids

import "github.com/segmentio/ksuid"

// New returns a fresh sortable account id.
func New() string {
	return ksuid.New().String()
}

// IsValid reports whether s parses as an id. Lookups reject malformed
// ids up front instead of handing them to the store.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	_, err := ksuid.Parse(s)
	return err == nil
}

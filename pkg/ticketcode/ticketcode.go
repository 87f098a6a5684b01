// Package ticketcode generates the human-facing codes printed on tickets.
package ticketcode

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies marketplace ticket codes
const Prefix = "TKT-"

// codeLength is the number of characters after the prefix
const codeLength = 8

// New returns a fresh ticket code in the form TKT-XXXXXXXX. Codes are
// derived from a random UUID; uniqueness is ultimately enforced by the
// tickets table, callers must retry on a collision.
func New() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return Prefix + raw[:codeLength]
}

// IsValid reports whether s has the shape of a ticket code
func IsValid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	body := s[len(Prefix):]
	if len(body) != codeLength {
		return false
	}
	for _, c := range body {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

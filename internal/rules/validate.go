// Package rules holds the per-order-type business rules: validation,
// deterministic transformation and enrichment. Processors are looked up by
// order type tag through the Registry.
package rules

import (
	"fmt"
	"strings"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	maxAddressLen     = 200
)

// Violation is one failed validation rule. All rules run on every request so
// a client sees the full list at once.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// SiteOrder is the normalized input the site processor works on.
type SiteOrder struct {
	Name        string
	Description string
	Address     string
}

// ValidateSite runs every site rule and accumulates the violations. A nil
// return means the order is valid.
func ValidateSite(order SiteOrder) []Violation {
	var violations []Violation

	name := strings.TrimSpace(order.Name)
	switch {
	case name == "":
		violations = append(violations, Violation{Field: "name", Message: "name is required"})
	case len(name) > maxNameLen:
		violations = append(violations, Violation{
			Field:   "name",
			Message: fmt.Sprintf("name must be at most %d characters", maxNameLen),
		})
	}
	if name != "" && !validNameCharset(name) {
		violations = append(violations, Violation{
			Field:   "name",
			Message: "name may only contain letters, digits, spaces and ._()-",
		})
	}

	if len(order.Description) > maxDescriptionLen {
		violations = append(violations, Violation{
			Field:   "description",
			Message: fmt.Sprintf("description must be at most %d characters", maxDescriptionLen),
		})
	}

	if len(order.Address) > maxAddressLen {
		violations = append(violations, Violation{
			Field:   "address",
			Message: fmt.Sprintf("address must be at most %d characters", maxAddressLen),
		})
	}
	if order.Address != "" && !plausibleAddress(order.Address) {
		violations = append(violations, Violation{
			Field:   "address",
			Message: "address must contain at least one letter or digit",
		})
	}

	return violations
}

func plausibleAddress(address string) bool {
	for _, r := range address {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

func validNameCharset(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ', r == '.', r == '_', r == '(', r == ')', r == '-':
		default:
			return false
		}
	}
	return true
}

package dn

import "github.com/dirscim/gateway/ldap"

// ConflictPolicy decides how a fixed attribute value combines with
// whatever the attribute mappers already staged for the same LDAP
// attribute type.
type ConflictPolicy int

const (
	// Merge appends the fixed value(s) to whatever the mappers staged.
	Merge ConflictPolicy = iota
	// Overwrite discards any mapper-staged values, keeping only the fixed ones.
	Overwrite
	// Preserve keeps the mapper-staged values if any are present,
	// falling back to the fixed value only when the attribute is unset.
	Preserve
)

// FixedAttribute declares a value (or values) that must be present on
// every newly created entry, applied after mappers have run.
type FixedAttribute struct {
	LDAPAttribute string
	Values        []string
	OnConflict    ConflictPolicy
}

// Apply mutates staged according to f's conflict policy.
func (f FixedAttribute) Apply(staged *ldap.Entry) {
	existing := staged.Attribute(f.LDAPAttribute)

	switch f.OnConflict {
	case Overwrite:
		staged.Set(f.LDAPAttribute, f.Values...)
	case Preserve:
		if len(existing) == 0 {
			staged.Set(f.LDAPAttribute, f.Values...)
		}
	default: // Merge
		staged.Set(f.LDAPAttribute, append(append([]string(nil), existing...), f.Values...)...)
	}
}

// ApplyFixedAttributes applies every fixed attribute in order.
func ApplyFixedAttributes(staged *ldap.Entry, fixed []FixedAttribute) {
	for _, f := range fixed {
		f.Apply(staged)
	}
}

// Package config implements the configuration loader (C9): it decodes
// the declarative mapping document of spec.md §6 with gopkg.in/yaml.v3
// into plain structs, then validates and compiles them by hand into the
// runtime descriptor, transform and mapper catalogs. It is the only package allowed to construct the otherwise
// immutable C1/C5/C6/C7 instances; everything downstream only reads them.
package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the raw YAML shape of a mapping configuration file. It
// mirrors spec.md §6's grammar field-for-field; Load walks it once to
// build the immutable runtime types and is then discarded.
type document struct {
	ServiceProviderConfig *rawServiceProviderConfig `yaml:"serviceProviderConfig"`
	Resources             []rawResource             `yaml:"resources"`
}

// rawServiceProviderConfig overrides spec.DefaultServiceProviderConfig's
// fields; any field omitted from the document keeps its default.
type rawServiceProviderConfig struct {
	FilterSupported *bool `yaml:"filterSupported"`
	SortSupported   *bool `yaml:"sortSupported"`
	PatchSupported  *bool `yaml:"patchSupported"`
	MaxResults      int   `yaml:"maxResults"`
}

type rawResource struct {
	Schema     string         `yaml:"schema"`
	Name       string         `yaml:"name"`
	Endpoint   string         `yaml:"endpoint"`
	LDAPSearch rawLDAPSearch  `yaml:"ldapSearch"`
	LDAPAdd    rawLDAPAdd     `yaml:"ldapAdd"`
	Attributes []rawAttribute `yaml:"attributes"`
}

type rawLDAPSearch struct {
	BaseDN string `yaml:"baseDN"`
	Filter string `yaml:"filter"`
	Scope  string `yaml:"scope"` // "sub" or "one"
}

type rawLDAPAdd struct {
	DNTemplate      string              `yaml:"dnTemplate"`
	FixedAttributes []rawFixedAttribute `yaml:"fixedAttributes"`
}

type rawFixedAttribute struct {
	LDAPAttribute string     `yaml:"ldapAttribute"`
	FixedValue    stringList `yaml:"fixedValue"`
	OnConflict    string     `yaml:"onConflict"` // MERGE|OVERWRITE|PRESERVE
}

// rawAttribute carries the fields common to every attribute definition,
// plus exactly one of the four shape subrecords and an optional
// derivation. Load rejects a document where zero or more than one shape
// is populated.
type rawAttribute struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Schema      string `yaml:"schema"` // defaults to the resource's schema
	ReadOnly    bool   `yaml:"readOnly"`
	Required    bool   `yaml:"required"`

	Simple        *rawSimpleShape  `yaml:"simple"`
	Complex       *rawComplexShape `yaml:"complex"`
	SimplePlural  *rawPluralShape  `yaml:"simplePlural"`
	ComplexPlural *rawPluralShape  `yaml:"complexPlural"`
	Derivation    *rawDerivation   `yaml:"derivation"`
}

type rawMapping struct {
	LDAPAttribute string `yaml:"ldapAttribute"`
	Transform     string `yaml:"transform"` // defaults to "default"
}

type rawSimpleShape struct {
	DataType  string     `yaml:"dataType"`
	CaseExact bool       `yaml:"caseExact"`
	Mapping   rawMapping `yaml:"mapping"`
}

type rawSubAttribute struct {
	Name      string `yaml:"name"`
	DataType  string `yaml:"dataType"`
	CaseExact bool   `yaml:"caseExact"`
}

type rawComplexShape struct {
	SubAttributes []rawSubAttribute `yaml:"subAttributes"`
	// Mapping holds one entry per mapped sub-attribute, keyed by
	// sub-attribute name; a declared sub-attribute absent from Mapping
	// is descriptor-only (carried for serialization, never written to
	// or read from the directory).
	Mapping map[string]rawMapping `yaml:"mapping"`
}

// rawPluralShape covers both simplePlural and complexPlural: mapper.Plural
// models every plural element as a {value, type} pair regardless of how
// many descriptive sub-attributes (display, primary, ...) the schema
// carries, so both grammar shapes compile through the same builder. See
// DESIGN.md for the rationale.
type rawPluralShape struct {
	DataType      string            `yaml:"dataType"`
	CaseExact     bool              `yaml:"caseExact"`
	PluralTypes   stringList        `yaml:"pluralTypes"`
	SubAttributes []rawSubAttribute `yaml:"subAttributes"` // optional override of the synthesized value/type/primary/display set
	Mapping       rawPluralMapping  `yaml:"mapping"`
}

type rawPluralMapping struct {
	Transform string `yaml:"transform"` // applied to the "value" sub-attribute

	// Canonical mode: one LDAP attribute per recognized type tag.
	CanonicalByType map[string]string `yaml:"canonicalByType"`

	// Multi-valued mode, used when CanonicalByType is empty.
	MultiValuedLDAPAttribute string `yaml:"multiValuedLDAPAttribute"`
}

type rawDerivation struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// stringList unmarshals either a single YAML scalar or a sequence into a
// []string, so a configuration author can write `fixedValue: top` or
// `fixedValue: [top, person]` interchangeably.
type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*s = out
		return nil
	default:
		*s = nil
		return nil
	}
}

func normalizeOnConflict(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

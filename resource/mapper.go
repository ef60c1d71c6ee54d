// Package resource implements the resource mapper (C7): the glue that
// composes attribute mappers, derived attributes, DN construction and
// fixed attributes into whole-entry translation for one configured SCIM
// resource, plus the service-level query pipeline built on top of it.
package resource

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/dirscim/gateway/derive"
	"github.com/dirscim/gateway/dn"
	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/mapper"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Mapper composes a resource's configured attribute mappers, derived
// attributes, DN template and fixed attributes into whole-entry
// translation. A Mapper is built once by config.Load and is immutable
// and safely shared across concurrent requests.
type Mapper struct {
	ResourceName string
	EndpointName string
	SchemaURN    string
	SearchBaseDN string
	SearchScope  ldap.SearchScope
	SearchFilter string // restricts which entries under SearchBaseDN belong to this resource
	DNTemplate   *dn.Template
	Fixed        []dn.FixedAttribute
	Mappers      []mapper.Mapper
	Derived      []derive.Attribute

	byPath map[string]mapper.Mapper // "schema|name" -> mapper, built by Compile
}

// Compile finishes building m's internal lookup index. config.Load
// calls this once after populating Mappers.
func (m *Mapper) Compile() {
	m.byPath = make(map[string]mapper.Mapper, len(m.Mappers))
	for _, mp := range m.Mappers {
		d := mp.Attribute()
		m.byPath[pathKey(d.Schema(), d.Name())] = mp
	}
}

func pathKey(schema, name string) string {
	return strings.ToLower(schema) + "|" + strings.ToLower(name)
}

// resolve finds the mapper backing (schema, name); schema defaults to
// the resource's core schema URN when empty, matching the filter
// grammar's "bare name means core schema" convention.
func (m *Mapper) resolve(schema, name string) mapper.Mapper {
	if schema == "" {
		schema = m.SchemaURN
	}
	return m.byPath[pathKey(schema, name)]
}

// ToLDAPAttributeTypes returns the union of LDAP attribute types needed
// to satisfy query, across every mapper and derived attribute it
// requests, plus "objectClass" (always fetched so toScimObject and
// fixed-attribute bookkeeping can inspect it).
func (m *Mapper) ToLDAPAttributeTypes(query object.QueryAttributes) []string {
	seen := map[string]struct{}{"objectClass": {}}
	var out []string
	add := func(t string) {
		k := strings.ToLower(t)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	add("objectClass")

	for _, mp := range m.Mappers {
		d := mp.Attribute()
		if !query.Requested(d.Schema(), d.Name(), "") {
			continue
		}
		for _, t := range mp.LDAPAttributeTypes() {
			add(t)
		}
	}
	for _, da := range m.Derived {
		for _, t := range da.LDAPAttributeTypes() {
			add(t)
		}
	}
	return out
}

// ToLDAPEntry applies every mapper and fixed attribute to scim, building
// a fresh staged entry and computing its DN from the template. It fails
// with spec.ErrInvalidResource if a required attribute is absent from
// scim.
func (m *Mapper) ToLDAPEntry(scim *object.SCIMObject) (*ldap.Entry, error) {
	out := &ldap.Entry{}

	for _, mp := range m.Mappers {
		d := mp.Attribute()
		attr := scim.Attribute(d.Schema(), d.Name())
		if d.Required() && (attr == nil || !attr.Present()) {
			return nil, fmt.Errorf("%w: required attribute %s.%s is absent", spec.ErrInvalidResource, d.Schema(), d.Name())
		}
		if err := mp.ToLDAP(scim, out); err != nil {
			return nil, err
		}
	}

	dn.ApplyFixedAttributes(out, m.Fixed)

	built, err := m.DNTemplate.Build(out)
	if err != nil {
		return nil, err
	}
	out.DN = built
	return out, nil
}

// ownedLDAPAttributeTypes is the union of attribute types every mapper
// on this resource reads or writes, used to scope ToLDAPModifications.
func (m *Mapper) ownedLDAPAttributeTypes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, mp := range m.Mappers {
		for _, t := range mp.LDAPAttributeTypes() {
			k := strings.ToLower(t)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// ToLDAPModifications diffs current against target, restricted to this
// resource's mapper-owned LDAP attribute types.
func (m *Mapper) ToLDAPModifications(current, target *ldap.Entry) []ldap.Modification {
	return mapper.Diff(m.ownedLDAPAttributeTypes(), current, target)
}

// ToLDAPSortAttribute resolves a SCIM sort path to an LDAP attribute
// type, failing with spec.ErrInvalidSort if it does not resolve to a
// sortable mapper.
func (m *Mapper) ToLDAPSortAttribute(path string) (*ldap.SortControl, error) {
	schema, name, subName, err := expr.SplitPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spec.ErrInvalidSort, err)
	}
	mp := m.resolve(schema, name)
	if mp == nil {
		return nil, fmt.Errorf("%w: sort path %q does not resolve to a mapped attribute", spec.ErrInvalidSort, path)
	}
	attr, ok := mp.ToLDAPSortAttribute(subName)
	if !ok {
		return nil, fmt.Errorf("%w: sort path %q is not sortable", spec.ErrInvalidSort, path)
	}
	return &ldap.SortControl{AttrType: attr}, nil
}

// ToLDAPFilter translates scimFilter into an LDAP filter that is AND-ed
// with this resource's SearchFilter, and reports whether the translation
// was partial (some part of scimFilter could not be expressed in LDAP,
// or widened from a strict comparison), meaning callers must re-check
// each result against scimFilter in memory.
func (m *Mapper) ToLDAPFilter(scimFilter string) (ldapFilter string, tree *expr.Expression, partial bool, err error) {
	if scimFilter == "" {
		return m.SearchFilter, nil, false, nil
	}
	tree, err = expr.Compile(scimFilter)
	if err != nil {
		return "", nil, false, err
	}
	translated, partial, err := m.translate(tree)
	if err != nil {
		return "", nil, false, err
	}
	if translated == "" {
		return m.SearchFilter, tree, partial, nil
	}
	if m.SearchFilter == "" {
		return translated, tree, partial, nil
	}
	return fmt.Sprintf("(&%s%s)", m.SearchFilter, translated), tree, partial, nil
}

// translate implements spec.md §4.6's AND/OR folding: an AND simply
// drops an untranslatable child (marking the result partial); an OR
// whose child is untranslatable widens the whole OR to "always true"
// (also partial), since dropping it the AND way would wrongly narrow
// the match set.
func (m *Mapper) translate(e *expr.Expression) (string, bool, error) {
	switch e.Kind {
	case expr.KindAnd:
		var frags []string
		partial := false
		for _, child := range e.Children {
			f, p, err := m.translate(child)
			if err != nil {
				return "", false, err
			}
			if p {
				partial = true
			}
			if f != "" {
				frags = append(frags, f)
			}
		}
		return andFragments(frags), partial, nil

	case expr.KindOr:
		var frags []string
		partial := false
		for _, child := range e.Children {
			f, p, err := m.translate(child)
			if err != nil {
				return "", false, err
			}
			if p {
				partial = true
			}
			if f == "" {
				// untranslatable branch widens the whole OR to "true"
				return "", true, nil
			}
			frags = append(frags, f)
		}
		return orAll(frags), partial, nil

	default:
		mp := m.resolve(e.Schema, e.Name)
		if mp == nil {
			return "", true, nil
		}
		frag, err := mp.ToLDAPFilter(e)
		if err != nil {
			return "", false, err
		}
		if frag == "" {
			return "", true, nil
		}
		partial := e.Op == expr.Gt || e.Op == expr.Lt
		return frag, partial, nil
	}
}

func andFragments(frags []string) string {
	switch len(frags) {
	case 0:
		return ""
	case 1:
		return frags[0]
	default:
		out := "(&"
		for _, f := range frags {
			out += f
		}
		return out + ")"
	}
}

func orAll(frags []string) string {
	switch len(frags) {
	case 0:
		return ""
	case 1:
		return frags[0]
	default:
		out := "(|"
		for _, f := range frags {
			out += f
		}
		return out + ")"
	}
}

// Version computes a SCIM meta.version token for entry: the directory's
// modifyTimestamp operational attribute when present, otherwise a stable
// hash over every mapper-owned attribute's values. Service.Replace uses
// this to detect a stale If-Match precondition.
func (m *Mapper) Version(entry *ldap.Entry) string {
	if mt := entry.First("modifyTimestamp"); mt != "" {
		return mt
	}
	h := sha1.New()
	for _, t := range m.ownedLDAPAttributeTypes() {
		values := append([]string(nil), entry.Attribute(t)...)
		sort.Strings(values)
		h.Write([]byte(strings.ToLower(t)))
		for _, v := range values {
			h.Write([]byte{0})
			h.Write([]byte(v))
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToSCIMObject builds the SCIMObject for entry, verifying it belongs to
// this resource (matches SearchFilter) and collecting mapped and
// derived attributes restricted to query. Returns a nil object, not an
// error, if entry does not belong to this resource.
func (m *Mapper) ToSCIMObject(ctx context.Context, entry *ldap.Entry, query object.QueryAttributes, directory ldap.DirectoryClient) (*object.SCIMObject, error) {
	if m.SearchFilter != "" {
		belongs, err := ldap.MatchFilter(entry, m.SearchFilter)
		if err != nil {
			return nil, err
		}
		if !belongs {
			return nil, nil
		}
	}

	obj := object.NewSCIMObject()
	for _, mp := range m.Mappers {
		d := mp.Attribute()
		if !query.Requested(d.Schema(), d.Name(), "") {
			continue
		}
		attr, err := mp.ToSCIM(entry)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			obj.AddAttribute(attr)
		}
	}
	for _, da := range m.Derived {
		attr, err := da.Compute(ctx, entry, directory, m.SearchBaseDN)
		if err != nil {
			return nil, err
		}
		if attr != nil {
			obj.AddAttribute(attr)
		}
	}
	return obj, nil
}

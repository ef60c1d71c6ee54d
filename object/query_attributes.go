package object

import "strings"

// QueryAttributes implements SCIMQueryAttributes: either "all" (the zero
// value, an empty set) or an explicit set of (schema, name[, subName])
// triples. An attribute is requested when the set is empty or contains a
// matching triple; a match on just (schema, name) selects all of that
// attribute's sub-attributes.
type QueryAttributes struct {
	all     bool
	triples map[string]struct{} // "schema|name" or "schema|name|subName", lower-cased
}

// AllAttributes returns the QueryAttributes selecting every attribute.
func AllAttributes() QueryAttributes {
	return QueryAttributes{all: true}
}

// Add restricts q to also include (schema, name[, subName]). Calling Add
// on an AllAttributes value has no effect: "all" always wins.
func (q *QueryAttributes) Add(schema, name, subName string) {
	if q.all {
		return
	}
	if q.triples == nil {
		q.triples = make(map[string]struct{})
	}
	q.triples[tripleKey(schema, name, subName)] = struct{}{}
}

func tripleKey(schema, name, subName string) string {
	k := strings.ToLower(schema) + "|" + strings.ToLower(name)
	if subName != "" {
		k += "|" + strings.ToLower(subName)
	}
	return k
}

// Requested reports whether (schema, name[, subName]) is selected: the
// set is empty (meaning "all"), or it contains the exact triple, or it
// contains the (schema, name) pair alone (which selects all of that
// attribute's sub-attributes).
func (q QueryAttributes) Requested(schema, name, subName string) bool {
	if q.all || len(q.triples) == 0 {
		return true
	}
	if _, ok := q.triples[tripleKey(schema, name, "")]; ok {
		return true
	}
	if subName != "" {
		if _, ok := q.triples[tripleKey(schema, name, subName)]; ok {
			return true
		}
	}
	return false
}

// IsAll reports whether q selects every attribute.
func (q QueryAttributes) IsAll() bool {
	return q.all || len(q.triples) == 0
}

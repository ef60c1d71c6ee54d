// Package codec holds the wire-form-independent pieces the json and xml
// subpackages share: the query-result list envelope and the error form,
// per spec.md §4.7. Each subpackage implements Serialize/Parse against
// these shared shapes; codec itself carries no marshaling logic.
package codec

import "github.com/dirscim/gateway/object"

// ListEnvelope is a query result: an ordered page of resources plus the
// paging totals. Parsing defaults TotalResults to len(Resources) and
// StartIndex to 1 when either is absent from the wire form.
type ListEnvelope struct {
	TotalResults int
	StartIndex   int
	Resources    []*object.SCIMObject
}

// Error is the wire form of a spec.Error: its HTTP-style status plus a
// free-text detail message, serialized as XML's <Error><code/>
// <description/></Error> or JSON's {"status","detail"}.
type Error struct {
	Status int
	Detail string
}

package spec

// Error prototypes, one per kind named in the error handling design.
// Wrap a prototype with fmt.Errorf("%w: detail", ErrX) at the point of
// detection; never construct a bare Error outside this file.
var (
	// The specified filter syntax was invalid, or unparseable.
	ErrInvalidFilter = &Error{Status: 400, Type: "invalidFilter"}

	// A required attribute was missing, the DN template referenced an
	// unbound placeholder, or the attribute path was unknown on create/replace.
	ErrInvalidResource = &Error{Status: 400, Type: "invalidResource"}

	// A value failed its descriptor's typing or transformation.
	ErrInvalidAttributeValue = &Error{Status: 400, Type: "invalidAttributeValue"}

	// The requested sort path did not resolve to a mapped attribute.
	ErrInvalidSort = &Error{Status: 400, Type: "invalidSort"}

	// Propagated from the directory.
	ErrUnauthorized = &Error{Status: 401, Type: "unauthorized"}

	// Propagated from the directory.
	ErrForbidden = &Error{Status: 403, Type: "forbidden"}

	// Entry absent, or hidden by the resource's search filter.
	ErrNotFound = &Error{Status: 404, Type: "notFound"}

	// Duplicate entry on create.
	ErrConflict = &Error{Status: 409, Type: "conflict"}

	// Version mismatch on replace or patch.
	ErrPreconditionFailed = &Error{Status: 412, Type: "preconditionFailed"}

	// Unexpected directory failure or internal invariant violation.
	ErrServerError = &Error{Status: 500, Type: "serverError"}

	// Directory connection failure.
	ErrServiceUnavailable = &Error{Status: 503, Type: "serviceUnavailable"}
)

// Error is a SCIM-style error: an HTTP-intended status plus a short type
// tag. Create one of the prototypes above; wrap it with fmt.Errorf for
// detail instead of constructing a new Error.
type Error struct {
	Status int
	Type   string
}

func (e *Error) Error() string {
	return e.Type
}

var _ error = (*Error)(nil)

package spec

// ServiceProviderConfig trims the teacher's service-provider metadata
// down to the capabilities this engine actually has an opinion on.
// resource.Service consults it to reject unsupported filter/sort/patch
// requests before ever touching the directory; it is never serialized
// as an HTTP endpoint itself — that surface belongs to the excluded
// transport layer.
type ServiceProviderConfig struct {
	FilterSupported bool
	MaxResults      int
	SortSupported   bool
	PatchSupported  bool
	// ChangePasswordSupported is true when a resource maps a password
	// attribute through the bcrypt transform.
	ChangePasswordSupported bool
}

// DefaultServiceProviderConfig returns the configuration this engine
// supports out of the box: filter, sort and patch are all implemented,
// change password depends on whether a given resource wires the bcrypt
// transform to one of its attributes.
func DefaultServiceProviderConfig() ServiceProviderConfig {
	return ServiceProviderConfig{
		FilterSupported: true,
		MaxResults:      200,
		SortSupported:   true,
		PatchSupported:  true,
	}
}

package derive

import (
	"context"

	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/google/uuid"
)

// GeneratedID derives a stable SCIM "id" for directory entries whose
// server has no entryUUID-equivalent operational attribute: it reads
// SourceAttribute if present, otherwise deterministically derives one
// from the entry's DN so the same entry always yields the same id
// across requests.
type GeneratedID struct {
	Descriptor      *spec.AttributeDescriptor
	SourceAttribute string // e.g. "entryUUID"; empty to always derive from DN
}

var _ Attribute = (*GeneratedID)(nil)

func (g *GeneratedID) LDAPAttributeTypes() []string {
	if g.SourceAttribute == "" {
		return nil
	}
	return []string{g.SourceAttribute}
}

func (g *GeneratedID) Compute(_ context.Context, entry *ldap.Entry, _ ldap.DirectoryClient, _ string) (*object.SCIMAttribute, error) {
	if g.SourceAttribute != "" {
		if v := entry.First(g.SourceAttribute); v != "" {
			return object.NewSingularAttribute(g.Descriptor, object.SimpleAttributeValue(object.StringValue(v))), nil
		}
	}
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(entry.DN)).String()
	return object.NewSingularAttribute(g.Descriptor, object.SimpleAttributeValue(object.StringValue(id))), nil
}

package derive

import (
	"context"
	"fmt"

	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/mapper"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// GroupMembers derives a user's "groups" attribute by a single-level
// secondary search: entries under GroupSearchBase whose MemberAttribute
// contains the user's own DN. Grounded on the teacher's groupsync
// walk, but simplified to one search instead of a breadth-first
// traversal of nested membership — this core has no background
// change-propagation to keep a denormalized "groups" property in sync,
// so it is recomputed fresh on every read instead.
type GroupMembers struct {
	Descriptor       *spec.AttributeDescriptor // the "groups" attribute descriptor (complex, plural)
	ValueDescriptor  *spec.AttributeDescriptor // the "value" sub-attribute (group DN or id)
	DisplayAttribute string                    // LDAP attribute on the group entry to use as "display", e.g. "cn"
	DisplayDescriptor *spec.AttributeDescriptor
	GroupSearchBase  string
	GroupFilter      string // additional LDAP filter restricting group entries, e.g. "(objectClass=groupOfNames)"
	MemberAttribute  string // e.g. "member" or "uniqueMember"
}

var _ Attribute = (*GroupMembers)(nil)

func (g *GroupMembers) LDAPAttributeTypes() []string { return nil }

func (g *GroupMembers) Compute(ctx context.Context, entry *ldap.Entry, directory ldap.DirectoryClient, _ string) (*object.SCIMAttribute, error) {
	filter := fmt.Sprintf("(%s=%s)", g.MemberAttribute, mapper.LDAPEscape(entry.DN))
	if g.GroupFilter != "" {
		filter = fmt.Sprintf("(&%s%s)", g.GroupFilter, filter)
	}

	groups, err := directory.Search(ctx, g.GroupSearchBase, ldap.ScopeWholeSubtree, filter, []string{g.DisplayAttribute}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: group membership search failed: %v", spec.ErrServiceUnavailable, err)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	var elements []object.SCIMAttributeValue
	for _, group := range groups {
		elem := object.NewComplexAttributeValue()
		elem.Set("value", object.NewSingularAttribute(g.ValueDescriptor, object.SimpleAttributeValue(object.StringValue(group.DN))))
		if g.DisplayDescriptor != nil {
			if display := group.First(g.DisplayAttribute); display != "" {
				elem.Set("display", object.NewSingularAttribute(g.DisplayDescriptor, object.SimpleAttributeValue(object.StringValue(display))))
			}
		}
		elements = append(elements, elem)
	}
	return object.NewPluralAttribute(g.Descriptor, elements), nil
}

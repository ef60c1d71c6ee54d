package ldap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientCRUD(t *testing.T) {
	ctx := context.Background()
	c := Memory()

	entry := &Entry{DN: "uid=bjensen,ou=People,dc=example,dc=com", Attributes: map[string][]string{
		"uid": {"bjensen"}, "sn": {"Jensen"}, "mail": {"bjensen@example.com"},
	}}
	require.NoError(t, c.Add(ctx, entry))
	assert.Error(t, c.Add(ctx, entry))

	got, err := c.Read(ctx, "UID=bjensen,ou=People,dc=example,dc=com", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jensen", got.First("sn"))

	require.NoError(t, c.Modify(ctx, entry.DN, []Modification{{Op: ModReplace, AttrType: "sn", Values: []string{"Doe"}}}))
	got, _ = c.Read(ctx, entry.DN, nil)
	assert.Equal(t, "Doe", got.First("sn"))

	require.NoError(t, c.Delete(ctx, entry.DN))
	got, err = c.Read(ctx, entry.DN, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryClientSearchWithFilter(t *testing.T) {
	ctx := context.Background()
	c := Memory()
	require.NoError(t, c.Add(ctx, &Entry{DN: "uid=bjensen,ou=People,dc=example,dc=com",
		Attributes: map[string][]string{"uid": {"bjensen"}, "mail": {"bjensen@example.com"}}}))
	require.NoError(t, c.Add(ctx, &Entry{DN: "uid=ajones,ou=People,dc=example,dc=com",
		Attributes: map[string][]string{"uid": {"ajones"}, "mail": {"ajones@example.com"}}}))

	results, err := c.Search(ctx, "ou=People,dc=example,dc=com", ScopeWholeSubtree, "(&(uid=bjensen)(mail=*example*))", nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bjensen", results[0].First("uid"))

	results, err = c.Search(ctx, "ou=People,dc=example,dc=com", ScopeWholeSubtree, "(uid=*)", nil, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleLeaf(t *testing.T) {
	e, err := Compile(`userName eq "bjensen"`)
	require.NoError(t, err)
	require.True(t, e.IsLeaf())
	assert.Equal(t, "userName", e.Name)
	assert.Equal(t, Eq, e.Op)
	assert.Equal(t, "bjensen", e.Value)
	assert.True(t, e.HasValue)
}

func TestCompilePresenceHasNoValue(t *testing.T) {
	e, err := Compile(`title pr`)
	require.NoError(t, err)
	assert.Equal(t, Pr, e.Op)
	assert.False(t, e.HasValue)
}

func TestCompileAndBindsTighterThanOr(t *testing.T) {
	e, err := Compile(`a eq "1" or b eq "2" and c eq "3"`)
	require.NoError(t, err)
	require.Equal(t, KindOr, e.Kind)
	require.Len(t, e.Children, 2)
	assert.True(t, e.Children[0].IsLeaf())
	assert.Equal(t, KindAnd, e.Children[1].Kind)
}

func TestCompileParenthesesOverridePrecedence(t *testing.T) {
	e, err := Compile(`(a eq "1" or b eq "2") and c eq "3"`)
	require.NoError(t, err)
	require.Equal(t, KindAnd, e.Kind)
	require.Len(t, e.Children, 2)
	assert.Equal(t, KindOr, e.Children[0].Kind)
}

func TestCompileSchemaAndSubNamePath(t *testing.T) {
	e, err := Compile(`urn:scim:schemas:core:1.0:name.familyName eq "Jensen"`)
	require.NoError(t, err)
	assert.Equal(t, "urn:scim:schemas:core:1.0", e.Schema)
	assert.Equal(t, "name", e.Name)
	assert.Equal(t, "familyName", e.SubName)
}

func TestCompileEscapedStringLiteral(t *testing.T) {
	e, err := Compile(`userName eq "bj\"ensen"`)
	require.NoError(t, err)
	assert.Equal(t, `bj"ensen`, e.Value)
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		`userName eq`,
		`userName eq "unterminated`,
		`(userName eq "x"`,
		`eq "x"`,
		`userName xx "x"`,
	}
	for _, raw := range tests {
		_, err := Compile(raw)
		assert.Error(t, err, raw)
	}
}

package expr

import (
	"fmt"
	"strings"

	"github.com/dirscim/gateway/spec"
)

// Compile parses raw into a filter Expression tree, or returns a wrapped
// spec.ErrInvalidFilter on any syntax error or unbalanced parentheses.
func Compile(raw string) (*Expression, error) {
	c := &compiler{scanner: newScanner(raw)}
	if err := c.advance(); err != nil {
		return nil, err
	}

	e, err := c.parseExpr()
	if err != nil {
		return nil, err
	}
	if c.tok.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing input", spec.ErrInvalidFilter)
	}
	return e, nil
}

type compiler struct {
	scanner *scanner
	tok     token
}

func (c *compiler) advance() error {
	tok, err := c.scanner.next()
	if err != nil {
		return err
	}
	c.tok = tok
	return nil
}

// parseExpr implements expr := term ("or" term)*
func (c *compiler) parseExpr() (*Expression, error) {
	first, err := c.parseTerm()
	if err != nil {
		return nil, err
	}
	children := []*Expression{first}
	for c.tok.kind == tokOr {
		if err := c.advance(); err != nil {
			return nil, err
		}
		next, err := c.parseTerm()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Expression{Kind: KindOr, Children: children}, nil
}

// parseTerm implements term := factor ("and" factor)*
func (c *compiler) parseTerm() (*Expression, error) {
	first, err := c.parseFactor()
	if err != nil {
		return nil, err
	}
	children := []*Expression{first}
	for c.tok.kind == tokAnd {
		if err := c.advance(); err != nil {
			return nil, err
		}
		next, err := c.parseFactor()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Expression{Kind: KindAnd, Children: children}, nil
}

// parseFactor implements factor := "(" expr ")" | path op value?
func (c *compiler) parseFactor() (*Expression, error) {
	if c.tok.kind == tokLParen {
		if err := c.advance(); err != nil {
			return nil, err
		}
		e, err := c.parseExpr()
		if err != nil {
			return nil, err
		}
		if c.tok.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected closing parenthesis", spec.ErrInvalidFilter)
		}
		if err := c.advance(); err != nil {
			return nil, err
		}
		return e, nil
	}

	if c.tok.kind != tokPath {
		return nil, fmt.Errorf("%w: expected a path", spec.ErrInvalidFilter)
	}
	schema, name, subName, err := splitPath(c.tok.value)
	if err != nil {
		return nil, err
	}
	if err := c.advance(); err != nil {
		return nil, err
	}

	if c.tok.kind != tokOp {
		return nil, fmt.Errorf("%w: expected a comparison operator", spec.ErrInvalidFilter)
	}
	op := Op(c.tok.value)
	if err := c.advance(); err != nil {
		return nil, err
	}

	leaf := &Expression{Kind: KindLeaf, Schema: schema, Name: name, SubName: subName, Op: op}
	if op == Pr {
		return leaf, nil
	}

	switch c.tok.kind {
	case tokString:
		leaf.Value = c.tok.value
	case tokPath:
		// A bare literal (number, true/false, a bare datetime token) was
		// scanned as a path-shaped word; reinterpret it as a literal.
		leaf.Value = c.tok.value
	default:
		return nil, fmt.Errorf("%w: expected a value after operator %q", spec.ErrInvalidFilter, op)
	}
	leaf.HasValue = true
	if err := c.advance(); err != nil {
		return nil, err
	}
	return leaf, nil
}

// SplitPath parses a bare attribute path of the form
// [schema ":"] name ["." subName], the same grammar a filter leaf's path
// uses, for reuse by callers that need to resolve a path outside a full
// filter expression (e.g. a sort parameter).
func SplitPath(raw string) (schema, name, subName string, err error) {
	return splitPath(raw)
}

// splitPath parses [schema ":"] name ["." subName].
func splitPath(raw string) (schema, name, subName string, err error) {
	rest := raw
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		schema, rest = rest[:idx], rest[idx+1:]
	}
	if idx := strings.Index(rest, "."); idx >= 0 {
		name, subName = rest[:idx], rest[idx+1:]
	} else {
		name = rest
	}
	if name == "" {
		return "", "", "", fmt.Errorf("%w: empty attribute path", spec.ErrInvalidFilter)
	}
	return schema, name, subName, nil
}

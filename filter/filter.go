// Package filter evaluates a parsed SCIM filter expression against an
// in-memory SCIMObject, per the evaluator table in the governing data
// model: EQ/CO/SW honor the target descriptor's case rule, PR checks
// presence, and GT/GE/LT/LE compare chronologically, numerically or
// lexicographically depending on the target descriptor's data type.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Compile parses raw into an *expr.Expression tree.
func Compile(raw string) (*expr.Expression, error) {
	return expr.Compile(raw)
}

// Evaluate reports whether obj satisfies tree, resolving leaf paths
// against registry to determine each attribute's data type and case
// rule.
func Evaluate(registry *spec.Registry, obj *object.SCIMObject, tree *expr.Expression) (bool, error) {
	if tree == nil {
		return true, nil
	}
	switch tree.Kind {
	case expr.KindAnd:
		for _, child := range tree.Children {
			ok, err := Evaluate(registry, obj, child)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case expr.KindOr:
		for _, child := range tree.Children {
			ok, err := Evaluate(registry, obj, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return evaluateLeaf(registry, obj, tree)
	}
}

func evaluateLeaf(registry *spec.Registry, obj *object.SCIMObject, leaf *expr.Expression) (bool, error) {
	d := registry.Descriptor(leaf.Schema, leaf.Name)
	if d == nil {
		return false, nil
	}

	attr := obj.Attribute(d.Schema(), d.Name())
	if attr == nil || !attr.Present() {
		return false, nil
	}
	if leaf.Op == expr.Pr && leaf.SubName == "" {
		return true, nil
	}

	if leaf.SubName != "" {
		sub := d.SubAttribute(leaf.SubName)
		if sub == nil {
			return false, nil
		}
		for i := 0; i < attr.CountValues(); i++ {
			v := attr.Values()[i]
			subAttr := v.Get(leaf.SubName)
			if subAttr == nil {
				continue
			}
			ok, err := evaluateAgainstValues(sub, leaf, subAttr.Values())
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	return evaluateAgainstValues(d, leaf, attr.Values())
}

// evaluateAgainstValues reports true if leaf matches any of values; for
// plural attributes a leaf matches if any element matches.
func evaluateAgainstValues(d *spec.AttributeDescriptor, leaf *expr.Expression, values []object.SCIMAttributeValue) (bool, error) {
	for _, v := range values {
		if !v.IsSimple() {
			continue
		}
		ok, err := evaluateSimple(d, leaf, v.Simple())
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evaluateSimple(d *spec.AttributeDescriptor, leaf *expr.Expression, v object.SimpleValue) (bool, error) {
	if leaf.Op == expr.Pr {
		return true, nil
	}

	switch leaf.Op {
	case expr.Eq, expr.Co, expr.Sw:
		return evaluateStringOp(d, leaf, v)
	case expr.Gt, expr.Ge, expr.Lt, expr.Le:
		return evaluateOrderOp(d, leaf, v)
	default:
		return false, fmt.Errorf("%w: unsupported operator %q", spec.ErrInvalidFilter, leaf.Op)
	}
}

func evaluateStringOp(d *spec.AttributeDescriptor, leaf *expr.Expression, v object.SimpleValue) (bool, error) {
	actual := v.String()
	want := leaf.Value
	if !d.CaseExact() {
		actual = strings.ToLower(actual)
		want = strings.ToLower(want)
	}
	switch leaf.Op {
	case expr.Eq:
		return actual == want, nil
	case expr.Co:
		return strings.Contains(actual, want), nil
	case expr.Sw:
		return strings.HasPrefix(actual, want), nil
	default:
		return false, nil
	}
}

func evaluateOrderOp(d *spec.AttributeDescriptor, leaf *expr.Expression, v object.SimpleValue) (bool, error) {
	switch d.DataType() {
	case spec.DataTypeDateTime:
		want, err := time.Parse(time.RFC3339, leaf.Value)
		if err != nil {
			return false, fmt.Errorf("%w: invalid datetime literal %q", spec.ErrInvalidAttributeValue, leaf.Value)
		}
		return compareOrder(leaf.Op, v.Time().Compare(want)), nil
	case spec.DataTypeInteger:
		want, err := strconv.ParseInt(leaf.Value, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: invalid integer literal %q", spec.ErrInvalidAttributeValue, leaf.Value)
		}
		return compareOrder(leaf.Op, compareInt64(v.Int(), want)), nil
	case spec.DataTypeString:
		actual, want := v.String(), leaf.Value
		if !d.CaseExact() {
			actual = strings.ToLower(actual)
			want = strings.ToLower(want)
		}
		return compareOrder(leaf.Op, strings.Compare(actual, want)), nil
	default:
		// BOOLEAN/BINARY have no ordering.
		return false, nil
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrder(op expr.Op, cmp int) bool {
	switch op {
	case expr.Gt:
		return cmp > 0
	case expr.Ge:
		return cmp >= 0
	case expr.Lt:
		return cmp < 0
	case expr.Le:
		return cmp <= 0
	default:
		return false
	}
}

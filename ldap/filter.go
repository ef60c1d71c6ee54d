package ldap

import (
	"fmt"
	"strings"
)

// MatchFilter evaluates a small subset of RFC 4515 LDAP filter syntax
// against entry: "&", "|", "=" (with leading/trailing "*" wildcard
// forms and the bare "*" presence form), ">=" and "<=". It is shared by
// MemoryClient's search implementation and by resource.Mapper, which
// uses it to verify a returned entry still belongs to a resource's
// configured search filter.
func MatchFilter(entry *Entry, filter string) (bool, error) {
	filter = strings.TrimSpace(filter)
	if !strings.HasPrefix(filter, "(") || !strings.HasSuffix(filter, ")") {
		return false, fmt.Errorf("ldap: malformed filter %q", filter)
	}
	body := filter[1 : len(filter)-1]

	switch body[0] {
	case '&', '|':
		children, err := splitFilterChildren(body[1:])
		if err != nil {
			return false, err
		}
		for _, child := range children {
			ok, err := MatchFilter(entry, child)
			if err != nil {
				return false, err
			}
			if body[0] == '&' && !ok {
				return false, nil
			}
			if body[0] == '|' && ok {
				return true, nil
			}
		}
		return body[0] == '&', nil
	default:
		return matchAssertion(entry, body)
	}
}

func splitFilterChildren(rest string) ([]string, error) {
	var children []string
	depth := 0
	start := -1
	for i, r := range rest {
		switch r {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				children = append(children, rest[start:i+1])
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("ldap: unbalanced filter %q", rest)
	}
	return children, nil
}

func matchAssertion(e *Entry, body string) (bool, error) {
	for _, op := range []string{">=", "<=", "="} {
		idx := strings.Index(body, op)
		if idx < 0 {
			continue
		}
		attr, want := body[:idx], body[idx+len(op):]
		values := e.Attribute(attr)

		switch {
		case want == "*":
			return len(values) > 0, nil
		case op == ">=":
			for _, v := range values {
				if v >= want {
					return true, nil
				}
			}
			return false, nil
		case op == "<=":
			for _, v := range values {
				if v <= want {
					return true, nil
				}
			}
			return false, nil
		case strings.HasPrefix(want, "*") && strings.HasSuffix(want, "*") && len(want) > 1:
			needle := want[1 : len(want)-1]
			for _, v := range values {
				if strings.Contains(v, needle) {
					return true, nil
				}
			}
			return false, nil
		case strings.HasSuffix(want, "*"):
			prefix := want[:len(want)-1]
			for _, v := range values {
				if strings.HasPrefix(v, prefix) {
					return true, nil
				}
			}
			return false, nil
		default:
			for _, v := range values {
				if v == want {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return false, fmt.Errorf("ldap: unrecognized assertion %q", body)
}

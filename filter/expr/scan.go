package expr

import (
	"fmt"
	"strings"

	"github.com/dirscim/gateway/spec"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokPath
	tokOp
	tokString
	tokLiteral // bare (unquoted) value: number, true, false, a bare datetime
)

type token struct {
	kind  tokenKind
	value string
}

// scanner tokenizes a SCIM filter string. It is a small hand-written
// lexer in the teacher's crud/expr style, sized to this grammar's much
// smaller token set (no shunting-yard precedence table is needed).
type scanner struct {
	src []rune
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: []rune(src)}
}

func (s *scanner) peekRune() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) skipSpace() {
	for {
		r, ok := s.peekRune()
		if !ok || !isSpace(r) {
			return
		}
		s.pos++
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isPathRune(r rune) bool {
	return r == '_' || r == '-' || r == ':' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// next returns the next token in the stream.
func (s *scanner) next() (token, error) {
	s.skipSpace()
	r, ok := s.peekRune()
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch r {
	case '(':
		s.pos++
		return token{kind: tokLParen}, nil
	case ')':
		s.pos++
		return token{kind: tokRParen}, nil
	case '"':
		return s.scanString()
	}

	if isPathRune(r) {
		return s.scanWord()
	}

	return token{}, fmt.Errorf("%w: unexpected character %q", spec.ErrInvalidFilter, r)
}

func (s *scanner) scanString() (token, error) {
	s.pos++ // consume opening quote
	var b strings.Builder
	for {
		r, ok := s.peekRune()
		if !ok {
			return token{}, fmt.Errorf("%w: unterminated string literal", spec.ErrInvalidFilter)
		}
		if r == '"' {
			s.pos++
			return token{kind: tokString, value: b.String()}, nil
		}
		if r == '\\' {
			s.pos++
			esc, ok := s.peekRune()
			if !ok {
				return token{}, fmt.Errorf("%w: unterminated escape sequence", spec.ErrInvalidFilter)
			}
			switch esc {
			case '"', '\\':
				b.WriteRune(esc)
			default:
				return token{}, fmt.Errorf("%w: invalid escape sequence \\%c", spec.ErrInvalidFilter, esc)
			}
			s.pos++
			continue
		}
		b.WriteRune(r)
		s.pos++
	}
}

// scanWord scans a bare word: a path, a keyword (and/or/eq/co/sw/pr/gt/
// ge/lt/le) or a bare literal value (number, true, false). The caller
// (the compiler) disambiguates based on parser state since the grammar
// is not context-free enough to tell these apart at the lexer alone.
func (s *scanner) scanWord() (token, error) {
	start := s.pos
	for {
		r, ok := s.peekRune()
		if !ok || !isPathRune(r) {
			break
		}
		s.pos++
	}
	word := string(s.src[start:s.pos])

	switch strings.ToLower(word) {
	case "and":
		return token{kind: tokAnd}, nil
	case "or":
		return token{kind: tokOr}, nil
	case "eq", "co", "sw", "pr", "gt", "ge", "lt", "le":
		return token{kind: tokOp, value: strings.ToLower(word)}, nil
	default:
		// Either a path (contains no digits-only ambiguity issue here) or a
		// bare literal such as 42, true, false. The compiler decides which
		// based on whether it is expecting a path or a value.
		return token{kind: tokPath, value: word}, nil
	}
}

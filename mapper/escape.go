package mapper

import "strings"

// LDAPEscape escapes the characters RFC 4515 requires escaping in a
// filter assertion value. Exported for resource.Service, which needs
// the same escaping when building an id-lookup filter outside any
// mapper's own ToLDAPFilter.
func LDAPEscape(s string) string {
	return ldapEscape(s)
}

// ldapEscape escapes the characters RFC 4515 requires escaping in a
// filter assertion value: backslash, the two parentheses and the
// wildcard asterisk.
func ldapEscape(s string) string {
	r := strings.NewReplacer(
		`\`, `\5c`,
		`*`, `\2a`,
		`(`, `\28`,
		`)`, `\29`,
		"\x00", `\00`,
	)
	return r.Replace(s)
}

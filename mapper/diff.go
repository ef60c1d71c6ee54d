package mapper

import (
	"sort"

	"github.com/dirscim/gateway/ldap"
)

// Diff compares current against target and returns the minimal list of
// LDAP modifications needed to bring current's values to target's,
// restricted to ownedTypes. Attribute types outside ownedTypes — those
// not covered by any mapper on the resource — are left untouched even
// if current and target disagree on them.
//
// An owned type present in target but absent (or different) in current
// yields a REPLACE; a type present in current but absent from target
// yields a DELETE. Identical values yield no modification.
func Diff(ownedTypes []string, current, target *ldap.Entry) []ldap.Modification {
	var mods []ldap.Modification
	for _, attrType := range ownedTypes {
		currentValues := current.Attribute(attrType)
		targetValues := target.Attribute(attrType)

		switch {
		case len(targetValues) == 0 && len(currentValues) == 0:
			continue
		case len(targetValues) == 0:
			mods = append(mods, ldap.Modification{Op: ldap.ModDelete, AttrType: attrType})
		case !sameValues(currentValues, targetValues):
			mods = append(mods, ldap.Modification{Op: ldap.ModReplace, AttrType: attrType, Values: targetValues})
		}
	}
	return mods
}

func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string(nil), a...), append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

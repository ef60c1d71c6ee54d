package ldap

import "fmt"

// DirectoryError is the failure shape the consumed DirectoryClient is
// expected to return: an LDAP result code plus a diagnostic message.
// resource.Service maps ResultCode to one of spec.md §7's error kinds.
type DirectoryError struct {
	ResultCode int
	Message    string
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("ldap: result code %d: %s", e.ResultCode, e.Message)
}

// Standard LDAP result codes (RFC 4511 §4.1.9) that resource.Service
// recognizes when mapping a DirectoryError to a spec.Error kind.
const (
	ResultSuccess               = 0
	ResultInvalidCredentials    = 49
	ResultInsufficientRights    = 50
	ResultNoSuchObject          = 32
	ResultEntryAlreadyExists    = 68
	ResultBusy                  = 51
	ResultUnavailable           = 52
	ResultUnwillingToPerform    = 53
	ResultOperationsError       = 1
)

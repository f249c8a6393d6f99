//go:build windows

package platform

import "golang.org/x/sys/windows"

// IsElevated reports whether the current process token is a member of the
// built-in Administrators group, the Windows equivalent of the Unix
// euid-0 check: SYN scans and OS fingerprinting need this, ping-only
// discovery scans don't.
func IsElevated() bool {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	token := windows.Token(0)
	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

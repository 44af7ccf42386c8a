//go:build linux

package install

import "golang.org/x/sys/unix"

// KernelRelease reports the running kernel release string, or empty when
// the syscall fails.
func KernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}

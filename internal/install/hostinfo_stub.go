//go:build !linux

package install

// KernelRelease reports the running kernel release string. Only implemented
// on linux.
func KernelRelease() string { return "" }

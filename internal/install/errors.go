package install

import "fmt"

// UnsupportedPlatformError is a host the decision table has no install path
// for.
type UnsupportedPlatformError struct {
	Distro string
}

func (e *UnsupportedPlatformError) Error() string {
	if e.Distro == "" {
		return "unsupported platform: distribution unknown"
	}
	return fmt.Sprintf("unsupported platform: %s", e.Distro)
}

// StepError reports which plan step failed. Execution stops at the first
// failure; later steps are never attempted.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("install step %s: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

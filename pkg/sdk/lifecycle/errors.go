package lifecycle

import "fmt"

// ProfileAttachError reports a launch whose create succeeded but whose
// profile attach failed. The instance exists, just without the profile.
type ProfileAttachError struct {
	Instance string
	Profile  string
	Err      error
}

func (e *ProfileAttachError) Error() string {
	return fmt.Sprintf("instance %s created, but attaching profile %s failed: %v", e.Instance, e.Profile, e.Err)
}

func (e *ProfileAttachError) Unwrap() error { return e.Err }

// RunningError reports a delete refused because the instance was observed
// running and the caller did not ask to stop it first.
type RunningError struct {
	Instance string
}

func (e *RunningError) Error() string {
	return fmt.Sprintf("instance %s is running; stop it before deleting", e.Instance)
}

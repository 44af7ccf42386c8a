package ui

type stepStatus string

const (
	stepPending stepStatus = "pending"
	stepRunning stepStatus = "running"
	stepDone    stepStatus = "done"
	stepFailed  stepStatus = "failed"
)

// stepState tracks one checklist entry. Plans are flat ordered lists.
type stepState struct {
	ID      string
	Title   string
	Status  stepStatus
	Message string
}

type stepSnapshot struct {
	Steps []stepState
}

package daemon

import "fmt"

// LifecycleState names the reason a lifecycle operation was refused.
type LifecycleState string

const (
	StateAlreadyRunning LifecycleState = "already_running"
	StateNotRunning     LifecycleState = "not_running"
	StateBusy           LifecycleState = "busy"
)

// LifecycleError reports a lifecycle or maintenance-gate refusal.
type LifecycleError struct {
	State LifecycleState
	Msg   string
}

func (e *LifecycleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare LifecycleError values by State.
func (e *LifecycleError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*LifecycleError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for lifecycle refusals
var (
	// ErrAlreadyRunning: start() while the daemon is not stopped.
	ErrAlreadyRunning = &LifecycleError{State: StateAlreadyRunning, Msg: "daemon is already running"}
	// ErrNotRunning: stop() while the daemon was not observed running.
	ErrNotRunning = &LifecycleError{State: StateNotRunning, Msg: "daemon is not running"}
	// ErrBusy: a maintenance operation while the serve loop owns the link.
	ErrBusy = &LifecycleError{State: StateBusy, Msg: "stop the daemon first"}
)

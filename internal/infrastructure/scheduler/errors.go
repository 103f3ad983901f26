package scheduler

import "errors"

var (
	// ErrTriggerNotRunning is returned when a manual run is requested on a
	// stopped trigger
	ErrTriggerNotRunning = errors.New("trigger is not running")

	// ErrSyncAlreadyInProgress is returned when a run is requested while a
	// previous run is still executing
	ErrSyncAlreadyInProgress = errors.New("synchronization already in progress")
)

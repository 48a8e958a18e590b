package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidJob is returned for a job without dataset code or with an unknown kind
	ErrInvalidJob = errors.New("invalid job")

	// ErrPermanent marks a job failure that a retry cannot fix
	ErrPermanent = errors.New("permanent failure")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Is matches ErrPermanent
func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent marks err so the scheduler fails the job without retrying it
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

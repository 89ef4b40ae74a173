package assessment

import "errors"

var (
	// ErrPrerequisiteMissing: post-test attempted (or material opened) before the pre-test.
	ErrPrerequisiteMissing = errors.New("pre-test not completed")
	// ErrAlreadyCompleted: the phase already has a result for this learner.
	ErrAlreadyCompleted = errors.New("test already completed")
	// ErrAttemptConflict: a submission lost the race for the single result slot,
	// or was made while not eligible. Callers should re-fetch the result.
	ErrAttemptConflict = errors.New("attempt conflict")
	ErrNotFound        = errors.New("not found")
	ErrInvalid         = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")

	// ErrConflict is returned by Store.CreateResult when a result for the
	// same (learner, phase) already exists.
	ErrConflict           = errors.New("result already exists")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

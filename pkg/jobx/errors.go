package jobx

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrInvalidJob      = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, http.StatusBadRequest, "Invalid job definition")
	ErrInvalidPayload  = jobxErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Job payload could not be decoded")
	ErrNoHandler       = jobxErrors.Register("NO_HANDLER", errx.TypeValidation, http.StatusBadRequest, "No handler registered for job type")
	ErrAlreadyRunning  = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, http.StatusConflict, "Worker is already running")
	ErrShutdownTimeout = jobxErrors.Register("SHUTDOWN_TIMEOUT", errx.TypeInternal, http.StatusInternalServerError, "Workers did not stop in time")
)

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Collaborator errors. The core never retries these; it reports them and leaves the live list alone.
	ErrLoadFailed         = fmt.Errorf("catalog load failed")
	ErrFetchFailed        = fmt.Errorf("history fetch failed")
	ErrSaveFailed         = fmt.Errorf("save failed")
	ErrDeleteFailed       = fmt.Errorf("delete failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

package api

import "fmt"

const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeTimeoutError = "TIMEOUT_ERROR"
)

// APIError is the one normalized shape every transport or HTTP failure is
// reduced to before it reaches a caller. Status is 0 when no response was
// received.
type APIError struct {
	Message string
	Status  int
	Code    string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
}

func IsNetworkError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeNetworkError
}

func IsTimeout(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeTimeoutError
}

// IsTransient reports whether the failure never reached the server, meaning
// local session state should not be drawn into question by it.
func IsTransient(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == 0
}

func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

func AsAPIError(err error) (*APIError, bool) {
	for err != nil {
		if apiErr, ok := err.(*APIError); ok {
			return apiErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

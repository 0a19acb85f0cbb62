package apierr

import "net/http"

// Error is the JSON error body every endpoint returns on failure:
// {"error": <code>, "message": <human readable>, "details": [...]}.
// Use the constructors below so codes and HTTP statuses stay paired.
type Error struct {
	Code    string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`

	status int
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, status: status}
}

// Validation reports every violation found in the request, not just the first.
func Validation(details []string) *Error {
	return &Error{
		Code:    "validation_error",
		Message: "Invalid payment data",
		Details: details,
		status:  http.StatusBadRequest,
	}
}

func NotFound(code, message string) *Error {
	return &Error{Code: code, Message: message, status: http.StatusNotFound}
}

func InvalidScenario(message string) *Error {
	return &Error{Code: "invalid_scenario", Message: message, status: http.StatusBadRequest}
}

func BadRequest(code, message string) *Error {
	return &Error{Code: code, Message: message, status: http.StatusBadRequest}
}

// Internal hides detail when the service runs in prod mode; callers pass the
// already-sanitized message.
func Internal(message string) *Error {
	return &Error{Code: "internal_error", Message: message, status: http.StatusInternalServerError}
}

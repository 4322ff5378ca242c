package dto

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInternalError = "internal_error"
	ErrCodeValidation    = "validation_error"

	// ErrCodeUnknownUser means the path names a user without a snapshot.
	ErrCodeUnknownUser = "unknown_user"
	// ErrCodeAccountNotFound means the account is not in the user's snapshot.
	ErrCodeAccountNotFound = "account_not_found"
	// ErrCodeEmptyStatement means the request carried no statement lines.
	ErrCodeEmptyStatement = "empty_statement"
)

// NewAPIError creates an APIError.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError reports a missing resource.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// UnknownUserError reports a user that is not configured.
func UnknownUserError(user string) APIError {
	return NewAPIError(ErrCodeUnknownUser, "user "+user+" is not configured")
}

// AccountNotFoundError reports an account missing from the snapshot.
func AccountNotFoundError(accountID string) APIError {
	return NewAPIError(ErrCodeAccountNotFound, "account "+accountID+" is not in the ledger snapshot")
}

// EmptyStatementError reports a reconcile request without lines.
func EmptyStatementError() APIError {
	return NewAPIError(ErrCodeEmptyStatement, "statement has no transactions")
}

// BadRequestError reports a malformed request.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// InternalError hides the cause of a server failure.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError reports a well-formed request with invalid values.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

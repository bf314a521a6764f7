package magicdog

import "github.com/magicdog/sdk/pkg/types"

// StatusError is the error form of a non-OK Status returned by the robot.
type StatusError = types.StatusError

// Sentinels for errors.Is. They match any StatusError with the same code,
// whatever its message.
var (
	ErrServiceNotReady = &StatusError{Code: types.ErrorCodeServiceNotReady}
	ErrTimeout         = &StatusError{Code: types.ErrorCodeTimeout}
	ErrInternal        = &StatusError{Code: types.ErrorCodeInternalError}
	ErrServiceError    = &StatusError{Code: types.ErrorCodeServiceError}
)

// StatusOf converts an error returned by this package back into a Status.
// nil is OK.
func StatusOf(err error) types.Status {
	return types.StatusOf(err)
}

// Package apps holds the helpers shared by the executables.
package apps

// ArgumentError reports a command line argument that cannot be used as given.
type ArgumentError struct {
	msg string
}

func NewArgumentError(msg string) *ArgumentError {
	return &ArgumentError{msg}
}

func (err *ArgumentError) Error() string {
	return err.msg
}

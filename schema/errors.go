package schema

import "errors"

var (
	// ErrUnavailable indicates the editor does not have exactly one workspace root.
	ErrUnavailable = errors.New("tab layout is not available for current workspace")
	// ErrLayoutNotFound indicates a named layout does not exist.
	ErrLayoutNotFound = errors.New("layout not found")
	// ErrLayoutExists indicates a layout with the target name already exists.
	ErrLayoutExists = errors.New("layout already exists")
	// ErrInvalidLayoutName indicates a name that cannot be stored as a file.
	ErrInvalidLayoutName = errors.New("invalid layout name")
	// ErrUserCanceled indicates an interactive prompt was dismissed.
	ErrUserCanceled = errors.New("canceled by user")
	// ErrUnknownCommand indicates an unrecognised command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidRequest indicates malformed command arguments.
	ErrInvalidRequest = errors.New("invalid request")
)

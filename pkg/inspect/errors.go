package inspect

import "errors"

var (
	// ErrHookExists indicates a hook with the same ID is already registered.
	ErrHookExists = errors.New("hook already registered")

	// ErrListenerExists indicates a listener with the same ID is already added.
	ErrListenerExists = errors.New("listener already exists")

	// ErrClosed indicates the inspector has been shut down.
	ErrClosed = errors.New("inspector closed")
)

package memrender

import (
	"errors"
	"fmt"
)

// ErrUnknownHandle is returned for handles this renderer did not create or
// has already unmounted.
var ErrUnknownHandle = errors.New("memrender: unknown or unmounted handle")

// HookOrderError reports a component that called hooks in a different
// order or number than on its previous render.
type HookOrderError struct {
	Component string
	Index     int
	Reason    string
}

func (e *HookOrderError) Error() string {
	return fmt.Sprintf("component %s: hook %d: %s", e.Component, e.Index, e.Reason)
}

// UnsupportedTypeError reports an element type the renderer cannot mount.
type UnsupportedTypeError struct {
	Type any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("memrender: unsupported element type %T", e.Type)
}

// renderPanic carries a render error out of a component call.
type renderPanic struct {
	err error
}

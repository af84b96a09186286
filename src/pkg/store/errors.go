package store

import "errors"

var (
	ErrNotInitialized  = errors.New("mindmap not initialized")
	ErrThreadNotFound  = errors.New("thread not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrStickyNotFound  = errors.New("sticky not found")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidView     = errors.New("invalid view")
	ErrInvalidStack    = errors.New("sticky cannot be stacked on itself")
	ErrInvalidSize     = errors.New("sticky size must be finite and not negative")
	ErrInvalidPosition = errors.New("sticky position must be finite")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyTitle      = errors.New("title is empty")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrClosed          = errors.New("store is closed")
)

package models

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidItemKind        = errors.New("invalid item type")
	ErrInvalidInteractionKind = errors.New("invalid interaction type")
)

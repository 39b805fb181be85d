package store

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrSlotTaken        = errors.New("slot already taken")
	ErrStatusTransition = errors.New("illegal status transition")
	ErrBadRule          = errors.New("malformed availability rule")
)

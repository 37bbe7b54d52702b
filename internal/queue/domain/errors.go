package domain

import "errors"

var (
	ErrTokenNotFound     = errors.New("token not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrQueuePaused       = errors.New("queue intake is paused")
)

package service

import "errors"

var (
	ErrSessionNotFound         = errors.New("discovery session not found")
	ErrSessionAlreadyCompleted = errors.New("discovery session already completed")
	ErrUnknownCommand          = errors.New("unknown command")
	ErrInvalidPhase            = errors.New("invalid phase")
)

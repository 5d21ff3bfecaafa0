package domain

import "errors"

var (
	ErrProblemNotFound  = errors.New("problem not found")
	ErrProgressNotFound = errors.New("progress not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrHintNotFound     = errors.New("hint not found")
	ErrDeliveryNotFound = errors.New("hint delivery not found")
)

package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidArgument is returned when a request is missing a required field
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPublishFailed is returned when the publisher capability fails or times out
	ErrPublishFailed = errors.New("publish failed")
)

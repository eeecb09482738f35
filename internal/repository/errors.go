package repository

import "errors"

var (
	// ErrInvalidJobID indicates an empty or malformed job ID
	ErrInvalidJobID = errors.New("invalid job ID")

	// ErrJobNotFound indicates the job does not exist or has expired
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists indicates a job with the same ID was already saved
	ErrJobExists = errors.New("job already exists")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

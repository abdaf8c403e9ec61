package services

import "errors"

// Service errors
var (
	ErrDatasetUnavailable = errors.New("rental dataset is not loaded")
)

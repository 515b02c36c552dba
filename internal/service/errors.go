package service

import "errors"

var (
	ErrMissingVideoURL = errors.New("videoUrl is required")
)

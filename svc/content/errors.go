package content

import "errors"

var (
	ErrContentNotFound    = errors.New("content not found")
	ErrContentExists      = errors.New("content with this slug already exists")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

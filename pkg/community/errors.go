package community

import "errors"

var (
	ErrUnknownAction = errors.New("unknown community action")
	ErrEnqueuerNil   = errors.New("enqueuer cannot be nil")
	ErrClientNil     = errors.New("client cannot be nil")
)

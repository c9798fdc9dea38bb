package service

import "errors"

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("codescholar: client is closed")

// ErrInvalidSeed indicates the seed query names no APIs.
var ErrInvalidSeed = errors.New("codescholar: seed must name at least one API")

// ErrRunNotFound indicates the requested search run does not exist.
var ErrRunNotFound = errors.New("codescholar: search run not found")

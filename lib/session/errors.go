package session

import "errors"

var (
	// ErrUnknownSession is returned for an ID that was never declared or has been removed.
	ErrUnknownSession = errors.New("unknown session")
	// ErrNoSender is reported when a command is dispatched to a session without a connection.
	ErrNoSender = errors.New("session has no sender")
	// ErrInvalidDeclaration is returned by Declare for incomplete declarations.
	ErrInvalidDeclaration = errors.New("invalid session declaration")
	// ErrDuplicateSession is returned by Declare when the name is already in use.
	ErrDuplicateSession = errors.New("duplicate session name")
	// ErrManagerClosed is returned once Close has been called.
	ErrManagerClosed = errors.New("session manager closed")
)

package client

import "errors"

// ErrWouldBlock is returned by Future.Poll and Stream.Next when no result is ready yet.
var ErrWouldBlock = errors.New("operation would block")

// ErrClosed is returned by Send once the client has been closed.
var ErrClosed = errors.New("client closed")

// ErrSendQueueFull is returned by Send when the outbound queue cannot take another line.
var ErrSendQueueFull = errors.New("send queue full")

// ErrAbandoned is returned by Poll on a future that was abandoned before it resolved.
var ErrAbandoned = errors.New("connect abandoned")

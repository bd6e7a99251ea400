package exception

import "errors"

var (
	ErrFeedEmpty         = errors.New("market data: feed empty")
	ErrCursorOverwritten = errors.New("market data: cursor overwritten, buffered data lost")
	ErrResyncTimeout     = errors.New("market data: resync timed out")
	ErrStartupTimeout    = errors.New("market data: no valid snapshot before startup deadline")
)

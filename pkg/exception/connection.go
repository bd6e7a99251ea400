package exception

import "github.com/yanun0323/errors"

var (
	ErrBreakerOpen      = errors.New("connection: circuit breaker open")
	ErrBreakerHalfProbe = errors.New("connection: half-open probe in flight")
)

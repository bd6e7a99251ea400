package exception

import "errors"

// Engine fatal errors. Once ProcessTick returns one of these the engine
// stays halted and every later call returns the same error.
var (
	ErrFillQueueOverflow    = errors.New("engine: executor dropped fills, ledger integrity lost")
	ErrInvalidPositionState = errors.New("engine: position has quantity with no cost basis")
	ErrEngineHalted         = errors.New("engine: halted")
)

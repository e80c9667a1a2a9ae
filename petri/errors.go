package petri

import "errors"

var (
	// Naming and construction errors
	ErrInvalidName            = errors.New("petri: invalid name")
	ErrRepeatedPlace          = errors.New("petri: place already exists")
	ErrRepeatedTransition     = errors.New("petri: transition already exists")
	ErrRepeatedPlaceInArcList = errors.New("petri: repeated place in arc list")
	ErrZeroWeight             = errors.New("petri: arc weight cannot be 0")
	ErrNilCondition           = errors.New("petri: nil activation condition")

	// Token arithmetic errors
	ErrNullTokens      = errors.New("petri: number of tokens must be greater than 0")
	ErrNotEnoughTokens = errors.New("petri: not enough tokens in the place")
	ErrOverflow        = errors.New("petri: token count overflow")
	ErrBlockedTooLong  = errors.New("petri: on-enter actions blocked past the configured timeout")

	// Runtime errors
	ErrNotInputPlace = errors.New("petri: not an input place")
	ErrInvalidArcOp  = errors.New("petri: invalid arc operation")
)

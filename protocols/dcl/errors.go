package dcl

import "errors"

var (
	ErrPaused               = errors.New("registry is paused")
	ErrInvalidEndpoint      = errors.New("range endpoints must align to the pool point delta")
	ErrIllegalRange         = errors.New("illegal point range")
	ErrLiquidityOverflow    = errors.New("liquidity exceeds the per point cap")
	ErrSlippage             = errors.New("output below the requested minimum")
	ErrInvalidFee           = errors.New("fee does not match a registered fee tier")
	ErrPoolExists           = errors.New("pool already exists")
	ErrPoolNotExist         = errors.New("pool does not exist")
	ErrLptNotExist          = errors.New("liquidity position does not exist")
	ErrOrderNotExist        = errors.New("limit order does not exist")
	ErrNotAllowed           = errors.New("caller does not own this position")
	ErrSameToken            = errors.New("pool tokens must differ")
	ErrTokenMismatch        = errors.New("token is not part of this pool")
	ErrInvalidOutputToken   = errors.New("requested output token does not match the swap direction")
	ErrSwapNotFinished      = errors.New("input amount exceeds what the pool can absorb")
	ErrMissingEndpoint      = errors.New("endpoint has no liquidity entry")
	ErrLiquidityTooSmall    = errors.New("deposit amounts convert to zero liquidity")
	ErrMergeMismatch        = errors.New("positions must share owner, pool and range to merge")
	ErrOrderActive          = errors.New("an active order already occupies this point for the user")
	ErrInvalidPoolID        = errors.New("malformed pool id")
	ErrInvalidLptID         = errors.New("malformed liquidity position id")
	ErrInvalidOrderID       = errors.New("malformed order id")
	ErrInvalidPoint         = errors.New("point outside the supported range")
	ErrDuplicateTokens      = errors.New("swap route revisits a pool")
	ErrEmptyRoute           = errors.New("swap route needs at least one pool")
	ErrInvalidProtocolFee   = errors.New("protocol fee rate exceeds the basis point denominator")
	ErrLiquidityDepleted    = errors.New("pool liquidity cannot cover the removal")
	ErrInvalidSellingAmount = errors.New("selling amount must exceed the swapped part")
	ErrAuditFailed          = errors.New("pool audit failed")
	ErrUnknownEvent         = errors.New("unknown event kind")
)

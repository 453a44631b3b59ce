package dcl

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Swap legs never cross the outermost slot, quotes by output may overshoot
// one point past it to prove the desire cannot be met.
const (
	swapLowBoundary    = -799999
	swapHighBoundary   = 799999
	desireLowBoundary  = -800001
	desireHighBoundary = 800001
)

// QuoteResult carries the estimate and echoes the caller's tag. A zero
// amount means the quote failed.
type QuoteResult struct {
	Amount *uint256.Int `json:"amount"`
	Tag    string       `json:"tag"`
}

// Swap trades inputAmount of inputToken through the listed pools and
// returns the output amount. Fails when any pool cannot absorb its leg or
// the final output is below minOutputAmount.
func (d *Dcl) Swap(accountID string, poolIDs []PoolID, inputToken string, inputAmount *uint256.Int, outputToken string, minOutputAmount *uint256.Int) (*uint256.Int, error) {
	if err := d.assertRunning(); err != nil {
		return nil, err
	}
	if len(poolIDs) == 0 {
		return nil, ErrEmptyRoute
	}
	vipInfo := d.VipUsers[accountID]
	seen := make(map[string]struct{}, len(poolIDs))

	token := inputToken
	amount := new(uint256.Int).Set(inputAmount)

	for _, poolID := range poolIDs {
		pool, err := d.GetPool(poolID)
		if err != nil {
			return nil, err
		}
		if pool.State == PAUSED {
			return nil, fmt.Errorf("%w: pool %q", ErrPaused, poolID)
		}
		pair := pool.TokenX + poolIDBreak + pool.TokenY
		if _, dup := seen[pair]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTokens, poolID)
		}
		seen[pair] = struct{}{}

		poolFee := pool.GetPoolFeeByUser(vipInfo)

		switch token {
		case pool.TokenX:
			cost, out, finished, _, _, err := pool.InternalXSwapY(poolFee, d.ProtocolFeeRate, amount, swapLowBoundary, false)
			if err != nil {
				return nil, err
			}
			if !finished {
				return nil, fmt.Errorf("%w: %s", ErrSwapNotFinished, pool.TokenY)
			}
			pool.TotalX.Add(pool.TotalX, cost)
			pool.TotalY.Sub(pool.TotalY, out)
			pool.VolumeXIn.Add(pool.VolumeXIn, cost)
			pool.VolumeYOut.Add(pool.VolumeYOut, out)
			token = pool.TokenY
			amount = out
		case pool.TokenY:
			cost, out, finished, _, _, err := pool.InternalYSwapX(poolFee, d.ProtocolFeeRate, amount, swapHighBoundary, false)
			if err != nil {
				return nil, err
			}
			if !finished {
				return nil, fmt.Errorf("%w: %s", ErrSwapNotFinished, pool.TokenX)
			}
			pool.TotalY.Add(pool.TotalY, cost)
			pool.TotalX.Sub(pool.TotalX, out)
			pool.VolumeYIn.Add(pool.VolumeYIn, cost)
			pool.VolumeXOut.Add(pool.VolumeXOut, out)
			token = pool.TokenX
			amount = out
		default:
			return nil, fmt.Errorf("%w: %s in pool %q", ErrTokenMismatch, token, poolID)
		}
	}

	if outputToken != token {
		return nil, ErrInvalidOutputToken
	}
	if amount.Cmp(minOutputAmount) < 0 {
		return nil, ErrSlippage
	}
	return amount, nil
}

// SwapByOutput trades for an exact outputAmount of outputToken. The pools
// are listed from the output side backwards. Returns the input actually
// needed; fails when it would exceed maxInputAmount.
func (d *Dcl) SwapByOutput(accountID string, poolIDs []PoolID, inputToken string, maxInputAmount *uint256.Int, outputToken string, outputAmount *uint256.Int) (*uint256.Int, error) {
	if err := d.assertRunning(); err != nil {
		return nil, err
	}
	if len(poolIDs) == 0 {
		return nil, ErrEmptyRoute
	}
	vipInfo := d.VipUsers[accountID]
	seen := make(map[string]struct{}, len(poolIDs))

	desireToken := outputToken
	desireAmount := new(uint256.Int).Set(outputAmount)

	for _, poolID := range poolIDs {
		pool, err := d.GetPool(poolID)
		if err != nil {
			return nil, err
		}
		if pool.State == PAUSED {
			return nil, fmt.Errorf("%w: pool %q", ErrPaused, poolID)
		}
		pair := pool.TokenX + poolIDBreak + pool.TokenY
		if _, dup := seen[pair]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTokens, poolID)
		}
		seen[pair] = struct{}{}

		poolFee := pool.GetPoolFeeByUser(vipInfo)

		switch desireToken {
		case pool.TokenX:
			need, acquired, finished, _, _, err := pool.InternalYSwapXDesireX(poolFee, d.ProtocolFeeRate, desireAmount, desireHighBoundary, false)
			if err != nil {
				return nil, err
			}
			if !finished {
				return nil, fmt.Errorf("%w: %s", ErrSwapNotFinished, pool.TokenX)
			}
			pool.TotalY.Add(pool.TotalY, need)
			pool.TotalX.Sub(pool.TotalX, acquired)
			pool.VolumeYIn.Add(pool.VolumeYIn, need)
			pool.VolumeXOut.Add(pool.VolumeXOut, acquired)
			desireToken = pool.TokenY
			desireAmount = need
		case pool.TokenY:
			need, acquired, finished, _, _, err := pool.InternalXSwapYDesireY(poolFee, d.ProtocolFeeRate, desireAmount, desireLowBoundary, false)
			if err != nil {
				return nil, err
			}
			if !finished {
				return nil, fmt.Errorf("%w: %s", ErrSwapNotFinished, pool.TokenY)
			}
			pool.TotalX.Add(pool.TotalX, need)
			pool.TotalY.Sub(pool.TotalY, acquired)
			pool.VolumeXIn.Add(pool.VolumeXIn, need)
			pool.VolumeYOut.Add(pool.VolumeYOut, acquired)
			desireToken = pool.TokenX
			desireAmount = need
		default:
			return nil, fmt.Errorf("%w: %s in pool %q", ErrTokenMismatch, desireToken, poolID)
		}
	}

	if inputToken != desireToken {
		return nil, ErrInvalidOutputToken
	}
	if desireAmount.Cmp(maxInputAmount) > 0 {
		return nil, ErrSlippage
	}
	return desireAmount, nil
}

// SwapByStopPoint trades in a single pool until either the input runs out or
// the price reaches stopPoint. Returns the input actually consumed.
func (d *Dcl) SwapByStopPoint(accountID string, poolID PoolID, inputToken string, inputAmount *uint256.Int, stopPoint int64) (*uint256.Int, error) {
	if err := d.assertRunning(); err != nil {
		return nil, err
	}
	pool, err := d.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool.State == PAUSED {
		return nil, fmt.Errorf("%w: pool %q", ErrPaused, poolID)
	}
	vipInfo := d.VipUsers[accountID]
	poolFee := pool.GetPoolFeeByUser(vipInfo)

	switch inputToken {
	case pool.TokenX:
		cost, out, _, _, _, err := pool.InternalXSwapY(poolFee, d.ProtocolFeeRate, inputAmount, stopPoint, false)
		if err != nil {
			return nil, err
		}
		pool.TotalX.Add(pool.TotalX, cost)
		pool.TotalY.Sub(pool.TotalY, out)
		pool.VolumeXIn.Add(pool.VolumeXIn, cost)
		pool.VolumeYOut.Add(pool.VolumeYOut, out)
		return cost, nil
	case pool.TokenY:
		cost, out, _, _, _, err := pool.InternalYSwapX(poolFee, d.ProtocolFeeRate, inputAmount, stopPoint, false)
		if err != nil {
			return nil, err
		}
		pool.TotalY.Add(pool.TotalY, cost)
		pool.TotalX.Sub(pool.TotalX, out)
		pool.VolumeYIn.Add(pool.VolumeYIn, cost)
		pool.VolumeXOut.Add(pool.VolumeXOut, out)
		return cost, nil
	default:
		return nil, fmt.Errorf("%w: %s in pool %q", ErrTokenMismatch, inputToken, poolID)
	}
}

// Quote estimates the output of a multi-hop exact input swap without
// touching the replayed state. Each pool is cloned before its leg runs.
func (d *Dcl) Quote(accountID string, poolIDs []PoolID, inputToken, outputToken string, inputAmount *uint256.Int, tag string) *QuoteResult {
	failed := &QuoteResult{Amount: new(uint256.Int), Tag: tag}
	if d.State == PAUSED {
		return failed
	}
	vipInfo := d.VipUsers[accountID]
	seen := make(map[string]struct{}, len(poolIDs))

	token := inputToken
	amount := new(uint256.Int).Set(inputAmount)

	for _, poolID := range poolIDs {
		pool, err := d.GetPool(poolID)
		if err != nil {
			return failed
		}
		if pool.State == PAUSED {
			return failed
		}
		pair := pool.TokenX + poolIDBreak + pool.TokenY
		if _, dup := seen[pair]; dup {
			return failed
		}
		seen[pair] = struct{}{}

		pool = pool.Clone()
		poolFee := pool.GetPoolFeeByUser(vipInfo)

		var out *uint256.Int
		var finished bool
		switch token {
		case pool.TokenX:
			_, out, finished, _, _, err = pool.InternalXSwapY(poolFee, d.ProtocolFeeRate, amount, swapLowBoundary, true)
			token = pool.TokenY
		case pool.TokenY:
			_, out, finished, _, _, err = pool.InternalYSwapX(poolFee, d.ProtocolFeeRate, amount, swapHighBoundary, true)
			token = pool.TokenX
		default:
			return failed
		}
		if err != nil || !finished {
			return failed
		}
		amount = out
	}

	if outputToken != token {
		return failed
	}
	return &QuoteResult{Amount: amount, Tag: tag}
}

// QuoteByOutput estimates the input needed for a multi-hop exact output
// swap. Pools are listed from the output side backwards, as in SwapByOutput.
func (d *Dcl) QuoteByOutput(poolIDs []PoolID, inputToken, outputToken string, outputAmount *uint256.Int, tag string) *QuoteResult {
	failed := &QuoteResult{Amount: new(uint256.Int), Tag: tag}
	if d.State == PAUSED {
		return failed
	}
	seen := make(map[string]struct{}, len(poolIDs))

	desireToken := outputToken
	desireAmount := new(uint256.Int).Set(outputAmount)

	for _, poolID := range poolIDs {
		pool, err := d.GetPool(poolID)
		if err != nil {
			return failed
		}
		if pool.State == PAUSED {
			return failed
		}
		pair := pool.TokenX + poolIDBreak + pool.TokenY
		if _, dup := seen[pair]; dup {
			return failed
		}
		seen[pair] = struct{}{}

		pool = pool.Clone()

		var need *uint256.Int
		var finished bool
		switch desireToken {
		case pool.TokenX:
			need, _, finished, _, _, err = pool.InternalYSwapXDesireX(pool.Fee, d.ProtocolFeeRate, desireAmount, desireHighBoundary, true)
			desireToken = pool.TokenY
		case pool.TokenY:
			need, _, finished, _, _, err = pool.InternalXSwapYDesireY(pool.Fee, d.ProtocolFeeRate, desireAmount, desireLowBoundary, true)
			desireToken = pool.TokenX
		default:
			return failed
		}
		if err != nil || !finished {
			return failed
		}
		desireAmount = need
	}

	if inputToken != desireToken {
		return failed
	}
	return &QuoteResult{Amount: desireAmount, Tag: tag}
}

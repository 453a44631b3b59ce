package dcl

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	poolIDBreak  = "|"
	lptIDBreak   = "#"
	orderIDBreak = "#"
)

// PoolID is tokenX|tokenY|fee. Token order is fixed at pool creation and the
// id is the sole pool key everywhere else.
type PoolID string

// LptID is poolID#serial.
type LptID string

// OrderID is poolID#serial.
type OrderID string

func GenPoolID(tokenA, tokenB string, fee uint32) PoolID {
	return PoolID(tokenA + poolIDBreak + tokenB + poolIDBreak + strconv.FormatUint(uint64(fee), 10))
}

// Parse splits a pool id into its token pair and fee.
func (id PoolID) Parse() (tokenX, tokenY string, fee uint32, err error) {
	parts := strings.SplitN(string(id), poolIDBreak, 3)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidPoolID, id)
	}
	feeValue, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidPoolID, id)
	}
	return parts[0], parts[1], uint32(feeValue), nil
}

func genLptID(poolID PoolID, serial uint64) LptID {
	return LptID(string(poolID) + lptIDBreak + strconv.FormatUint(serial, 10))
}

// PoolID recovers the pool an lpt id belongs to.
func (id LptID) PoolID() (PoolID, error) {
	loc := strings.LastIndex(string(id), lptIDBreak)
	if loc < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidLptID, id)
	}
	return PoolID(id[:loc]), nil
}

func genOrderID(poolID PoolID, serial uint64) OrderID {
	return OrderID(string(poolID) + orderIDBreak + strconv.FormatUint(serial, 10))
}

// PoolID recovers the pool an order id belongs to.
func (id OrderID) PoolID() (PoolID, error) {
	loc := strings.LastIndex(string(id), orderIDBreak)
	if loc < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderID, id)
	}
	return PoolID(id[:loc]), nil
}

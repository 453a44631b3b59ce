// Package pointbitmap maintains the sparse activity index over the point
// space. A point at a pointDelta-aligned slot owns one bit; 256 slots share a
// word; only non-zero words are stored. The nearest-left/right searches are
// the traversal primitive of the swap loop and never materialize the full
// point space.
package pointbitmap

import (
	"errors"
	"math/bits"
	"sort"

	"github.com/holiman/uint256"
)

var (
	ErrMisalignedPoint = errors.New("point not aligned to point delta")
)

// PointBitmap maps word index -> 256-bit word. Bit b of word w covers slot
// w*256+b, which is point (w*256+b)*pointDelta.
type PointBitmap struct {
	words map[int64]*uint256.Int
}

func New() *PointBitmap {
	return &PointBitmap{words: make(map[int64]*uint256.Int)}
}

// Clone deep-copies the bitmap. Quote-mode swaps and the patcher rely on
// clones to keep the persisted index untouched.
func (b *PointBitmap) Clone() *PointBitmap {
	clone := &PointBitmap{words: make(map[int64]*uint256.Int, len(b.words))}
	for idx, word := range b.words {
		clone.words[idx] = new(uint256.Int).Set(word)
	}
	return clone
}

// floorDiv rounds the quotient towards negative infinity.
func floorDiv(a, d int64) int64 {
	q := a / d
	if a%d != 0 && (a < 0) != (d < 0) {
		q--
	}
	return q
}

// posMod returns a non-negative remainder.
func posMod(a, d int64) int64 {
	m := a % d
	if m < 0 {
		m += d
	}
	return m
}

func locate(point, pointDelta int64) (wordIdx, bitIdx int64) {
	slot := floorDiv(point, pointDelta)
	return floorDiv(slot, 256), posMod(slot, 256)
}

// SetOne marks the slot holding point as valued.
func (b *PointBitmap) SetOne(point, pointDelta int64) error {
	if posMod(point, pointDelta) != 0 {
		return ErrMisalignedPoint
	}
	wordIdx, bitIdx := locate(point, pointDelta)
	word, ok := b.words[wordIdx]
	if !ok {
		word = new(uint256.Int)
		b.words[wordIdx] = word
	}
	word[bitIdx/64] |= 1 << uint(bitIdx%64)
	return nil
}

// SetZero clears the slot holding point, dropping the word when it empties.
func (b *PointBitmap) SetZero(point, pointDelta int64) error {
	if posMod(point, pointDelta) != 0 {
		return ErrMisalignedPoint
	}
	wordIdx, bitIdx := locate(point, pointDelta)
	word, ok := b.words[wordIdx]
	if !ok {
		return nil
	}
	word[bitIdx/64] &^= 1 << uint(bitIdx%64)
	if word.IsZero() {
		delete(b.words, wordIdx)
	}
	return nil
}

// GetBit reports whether the slot holding point is valued.
func (b *PointBitmap) GetBit(point, pointDelta int64) (bool, error) {
	if posMod(point, pointDelta) != 0 {
		return false, ErrMisalignedPoint
	}
	wordIdx, bitIdx := locate(point, pointDelta)
	word, ok := b.words[wordIdx]
	if !ok {
		return false, nil
	}
	return word[bitIdx/64]&(1<<uint(bitIdx%64)) != 0, nil
}

// NearestLeftValuedSlot returns the start point of the closest valued slot at
// or left of point, not scanning past stopSlot. The second return is false
// when no valued slot exists in the scan range.
func (b *PointBitmap) NearestLeftValuedSlot(point, pointDelta, stopSlot int64) (int64, bool) {
	slot := floorDiv(point, pointDelta)
	bitIdx := posMod(slot, 256)
	baseSlot := slot - bitIdx

	var slotWord uint256.Int
	if word, ok := b.words[floorDiv(slot, 256)]; ok {
		// Keep the bit of slot itself and every lower bit.
		slotWord.Set(word)
		maskAbove(&slotWord, bitIdx)
	}

	for baseSlot > stopSlot-256 {
		if msb, ok := mostSignificantBit(&slotWord); ok {
			targetSlot := baseSlot + msb
			if targetSlot >= stopSlot {
				return targetSlot * pointDelta, true
			}
			return 0, false
		}
		baseSlot -= 256
		slotWord.Clear()
		if word, ok := b.words[floorDiv(baseSlot, 256)]; ok {
			slotWord.Set(word)
		}
	}
	return 0, false
}

// NearestRightValuedSlot returns the start point of the closest valued slot
// strictly right of the slot holding point, not scanning past stopSlot. The
// second return is false when no valued slot exists in the scan range.
func (b *PointBitmap) NearestRightValuedSlot(point, pointDelta, stopSlot int64) (int64, bool) {
	slot := floorDiv(point, pointDelta) + 1
	bitIdx := posMod(slot, 256)
	baseSlot := slot - bitIdx

	var slotWord uint256.Int
	if word, ok := b.words[floorDiv(slot, 256)]; ok {
		// Keep the bit of slot itself and every higher bit.
		slotWord.Set(word)
		maskBelow(&slotWord, bitIdx)
	}

	for baseSlot <= stopSlot {
		if lsb, ok := leastSignificantBit(&slotWord); ok {
			targetSlot := baseSlot + lsb
			if targetSlot <= stopSlot {
				return targetSlot * pointDelta, true
			}
			return 0, false
		}
		baseSlot += 256
		slotWord.Clear()
		if word, ok := b.words[floorDiv(baseSlot, 256)]; ok {
			slotWord.Set(word)
		}
	}
	return 0, false
}

// Endpoints lists every valued point, ascending.
func (b *PointBitmap) Endpoints(pointDelta int64) []int64 {
	var points []int64
	for wordIdx, word := range b.words {
		for bitIdx := int64(0); bitIdx < 256; bitIdx++ {
			if word[bitIdx/64]&(1<<uint(bitIdx%64)) != 0 {
				points = append(points, (wordIdx*256+bitIdx)*pointDelta)
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	return points
}

// Words calls f for every stored word. Mutating value inside f corrupts the
// index; snapshot writers must copy.
func (b *PointBitmap) Words(f func(wordIdx int64, value *uint256.Int)) {
	for idx, word := range b.words {
		f(idx, word)
	}
}

// LoadWord installs a snapshot word, replacing any existing value.
func (b *PointBitmap) LoadWord(wordIdx int64, value *uint256.Int) {
	if value.IsZero() {
		delete(b.words, wordIdx)
		return
	}
	b.words[wordIdx] = new(uint256.Int).Set(value)
}

// Len returns the number of stored words.
func (b *PointBitmap) Len() int {
	return len(b.words)
}

// maskAbove clears every bit above bitIdx.
func maskAbove(word *uint256.Int, bitIdx int64) {
	limb := bitIdx / 64
	word[limb] &= (1 << uint(bitIdx%64+1)) - 1
	for i := limb + 1; i < 4; i++ {
		word[i] = 0
	}
}

// maskBelow clears every bit below bitIdx.
func maskBelow(word *uint256.Int, bitIdx int64) {
	limb := bitIdx / 64
	word[limb] &^= (1 << uint(bitIdx%64)) - 1
	for i := int64(0); i < limb; i++ {
		word[i] = 0
	}
}

func mostSignificantBit(word *uint256.Int) (int64, bool) {
	if word.IsZero() {
		return 0, false
	}
	return int64(word.BitLen() - 1), true
}

func leastSignificantBit(word *uint256.Int) (int64, bool) {
	for i := 0; i < 4; i++ {
		if word[i] != 0 {
			return int64(i*64 + bits.TrailingZeros64(word[i])), true
		}
	}
	return 0, false
}

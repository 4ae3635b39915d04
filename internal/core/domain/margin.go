package domain

import (
	"fmt"
	"math/bits"
)

const (
	FractionalMarginRule     = "fractional"
	MultiplicativeMarginRule = "multiplicative"
)

// BidMargin decides whether a new stake displaces the current front-runner.
type BidMargin interface {
	Accepts(previous, next Stake) bool
	String() string
}

func NewBidMargin(rule string, spreadMultiplier uint64) (BidMargin, error) {
	if spreadMultiplier < 1 {
		return nil, fmt.Errorf("spread multiplier must be at least 1")
	}

	switch rule {
	case "", FractionalMarginRule:
		return fractionalMargin{spreadMultiplier}, nil
	case MultiplicativeMarginRule:
		return multiplicativeMargin{spreadMultiplier}, nil
	default:
		return nil, fmt.Errorf("unknown bid margin rule %s", rule)
	}
}

// fractionalMargin requires each bid to raise the previous one by at least
// 1/divisor of it: (next - previous) * divisor >= previous.
type fractionalMargin struct {
	divisor uint64
}

func (m fractionalMargin) Accepts(previous, next Stake) bool {
	if next <= previous {
		return false
	}
	hi, lo := bits.Mul64(uint64(next-previous), m.divisor)
	if hi > 0 {
		return true
	}
	return lo >= uint64(previous)
}

func (m fractionalMargin) String() string {
	return fmt.Sprintf("%s(1/%d)", FractionalMarginRule, m.divisor)
}

// multiplicativeMargin requires next >= previous * factor.
type multiplicativeMargin struct {
	factor uint64
}

func (m multiplicativeMargin) Accepts(previous, next Stake) bool {
	if next <= previous {
		return false
	}
	hi, lo := bits.Mul64(uint64(previous), m.factor)
	if hi > 0 {
		return false
	}
	return uint64(next) >= lo
}

func (m multiplicativeMargin) String() string {
	return fmt.Sprintf("%s(x%d)", MultiplicativeMarginRule, m.factor)
}

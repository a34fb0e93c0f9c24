package domain

// Side tags the aggressor side of a trade print.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Trade is a single print. Timestamp is in milliseconds.
type Trade struct {
	Price     float64
	Volume    float64
	Side      Side
	Timestamp int64
}

// SignedVolume returns +volume for buys and -volume for sells.
func (t Trade) SignedVolume() float64 {
	if t.Side == SideBuy {
		return t.Volume
	}
	return -t.Volume
}

package domain

// SignalDirection is the pipeline's final classification for a tick.
type SignalDirection string

const (
	SignalBuy  SignalDirection = "BUY"
	SignalSell SignalDirection = "SELL"
	SignalWait SignalDirection = "WAIT"
)

// Opposite maps BUY to SELL and back; WAIT maps to itself.
func (d SignalDirection) Opposite() SignalDirection {
	switch d {
	case SignalBuy:
		return SignalSell
	case SignalSell:
		return SignalBuy
	}
	return SignalWait
}

// Direction is a coarse up/down/neutral hint (liquidity pull, breakouts).
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Phase tags the dominant market-maker activity seen on the current tick.
type Phase string

const (
	PhaseDiscovery    Phase = "discovery"
	PhaseManipulation Phase = "manipulation"
	PhaseExecution    Phase = "execution"
	PhaseDistribution Phase = "distribution"
)

// Intent is the smart-volume read of what large participants are doing.
type Intent string

const (
	IntentAccumulating Intent = "accumulating"
	IntentDistributing Intent = "distributing"
	IntentUnclear      Intent = "unclear"
)

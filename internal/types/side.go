package types

type Side uint8

const (
	Side__BID Side = iota
	Side__ASK
)

func (s Side) String() string {
	switch s {
	case Side__BID:
		return "Bids"
	case Side__ASK:
		return "Asks"
	default:
		return "unknown"
	}
}

// Entry is one raw (price, size) pair as supplied by a feed message.
type Entry struct {
	Price float64
	Size  int64
}

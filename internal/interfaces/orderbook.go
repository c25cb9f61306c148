package interfaces

import (
	"io"

	"github.com/mkrill/depthwatch/internal/types"
)

type Orderbook interface {
	Replace(bids, asks []types.Entry)
	Levels(types.Side) []Level
	Iterate(types.Side, func(Level) bool)
	Top(types.Side) Level
	Depth(types.Side) int
	Render(io.Writer) error
	Print()
}

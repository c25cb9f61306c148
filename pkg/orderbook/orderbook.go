package orderbook

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/btree"

	"github.com/mkrill/depthwatch/internal/interfaces"
	"github.com/mkrill/depthwatch/internal/types"
)

var _ interfaces.Orderbook = &Orderbook{}

// Orderbook holds a depth-limited snapshot of both sides of one market.
// Each side is unique by price; the depth bound is enforced by the
// caller, which only ever supplies the top entries of a feed message.
type Orderbook struct {
	symbol string
	sides  map[types.Side]*side
}

func New(symbol string) interfaces.Orderbook {
	orderbook := &Orderbook{
		symbol: symbol,
		sides:  make(map[types.Side]*side),
	}
	orderbook.sides[types.Side__ASK] = newSide()
	orderbook.sides[types.Side__BID] = newSide()

	return orderbook
}

// Replace discards the previous contents of both sides and inserts the
// supplied entries. The feed delivers complete snapshots, so there is no
// merge path: an empty slice empties that side. Duplicate prices within
// one call collapse to a single entry.
func (o *Orderbook) Replace(bids, asks []types.Entry) {
	o.sides[types.Side__BID].reset()
	o.sides[types.Side__ASK].reset()

	for _, e := range bids {
		o.sides[types.Side__BID].insert(e)
	}
	for _, e := range asks {
		o.sides[types.Side__ASK].insert(e)
	}
}

func (o *Orderbook) Levels(side types.Side) []interfaces.Level {
	var levels []interfaces.Level
	o.sides[side].tree.Ascend(func(item interfaces.Level) bool {
		levels = append(levels, item)
		return true
	})

	return levels
}

func (o *Orderbook) Iterate(side types.Side, fn func(item interfaces.Level) bool) {
	o.sides[side].tree.Ascend(fn)
}

func (o *Orderbook) Depth(side types.Side) int {
	return o.sides[side].tree.Len()
}

// Top returns the best level of a side: highest bid, lowest ask.
func (o *Orderbook) Top(side types.Side) interfaces.Level {
	if side == types.Side__BID {
		if l, ok := o.sides[side].tree.Max(); ok {
			return l
		}
		return nil
	}
	if l, ok := o.sides[side].tree.Min(); ok {
		return l
	}
	return nil
}

// Render writes the current state as a table, bids in ascending price
// order followed by asks in descending price order, so both stacks read
// best-near-the-spread. Pure read: rendering twice yields identical
// output.
func (o *Orderbook) Render(w io.Writer) error {
	fmt.Fprintln(w, "Current order book state")

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Type\tSymbol\tPrice\tContract size")

	o.Iterate(types.Side__BID, func(item interfaces.Level) bool {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", types.Side__BID, o.symbol, formatPrice(item.Price()), item.Size())
		return true
	})
	o.sides[types.Side__ASK].tree.Descend(func(item interfaces.Level) bool {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", types.Side__ASK, o.symbol, formatPrice(item.Price()), item.Size())
		return true
	})

	return tw.Flush()
}

func (o *Orderbook) Print() {
	o.Render(os.Stdout)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

type side struct {
	tree *btree.BTreeG[interfaces.Level]
}

func newSide() *side {
	return &side{
		// equal total-order keys collapse, so a side never holds two
		// levels at the same price
		tree: btree.NewG(2, func(a, b interfaces.Level) bool {
			return totalLess(a.Price(), b.Price())
		}),
	}
}

func (s *side) insert(e types.Entry) {
	s.tree.ReplaceOrInsert(&level{price: e.Price, size: e.Size})
}

func (s *side) reset() {
	s.tree.Clear(false)
}

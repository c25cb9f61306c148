package orderbook

import "github.com/mkrill/depthwatch/internal/interfaces"

var _ interfaces.Level = &level{}

type level struct {
	price float64
	size  int64
}

func (l *level) Price() float64 {
	return l.price
}

func (l *level) Size() int64 {
	return l.size
}

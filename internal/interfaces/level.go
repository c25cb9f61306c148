package interfaces

type Level interface {
	Price() float64
	Size() int64
}

package assembler

// optional holds a write-once value.
type optional[T any] struct {
	value T
	set   bool
}

func (o *optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

package filter

// FilterChain links filters so each can decide whether the next one runs. The
// handler receives every frame that makes it past the last filter.
type FilterChain struct {
	handler func(frame *Frame)
	current Filter
	chain   *FilterChain
}

func NewFilterChain(handler func(frame *Frame), filters []Filter) *FilterChain {
	return initChain(filters, handler)
}

func newChain(handler func(frame *Frame), current Filter, chain *FilterChain) *FilterChain {
	return &FilterChain{
		handler: handler,
		current: current,
		chain:   chain,
	}
}

func initChain(filters []Filter, handler func(frame *Frame)) *FilterChain {
	chain := newChain(handler, nil, nil)
	for i := len(filters) - 1; i >= 0; i-- {
		chain = newChain(handler, filters[i], chain)
	}
	return chain
}

func (c *FilterChain) Filter(frame *Frame) {
	if c.current != nil && c.chain != nil {
		c.current.Filter(frame, c.chain)
	} else {
		c.handler(frame)
	}
}

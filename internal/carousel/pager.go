package carousel

// Pager is a bounded index over n items. Moves past either end are no-ops.
type Pager struct {
	index int
	n     int
}

// NewPager returns a pager at the first of n items.
func NewPager(n int) *Pager {
	if n < 0 {
		n = 0
	}
	return &Pager{n: n}
}

// Index is the current position; 0 for an empty pager.
func (p *Pager) Index() int { return p.index }

// Len is the number of items.
func (p *Pager) Len() int { return p.n }

// Max is the last valid index, -1 when empty.
func (p *Pager) Max() int { return p.n - 1 }

func (p *Pager) CanPrevious() bool { return p.n > 0 && p.index > 0 }
func (p *Pager) CanNext() bool     { return p.n > 0 && p.index < p.n-1 }

// Next advances and reports whether the index changed.
func (p *Pager) Next() bool {
	if !p.CanNext() {
		return false
	}
	p.index++
	return true
}

// Previous steps back and reports whether the index changed.
func (p *Pager) Previous() bool {
	if !p.CanPrevious() {
		return false
	}
	p.index--
	return true
}

// Set jumps to i when it is in range.
func (p *Pager) Set(i int) bool {
	if i < 0 || i >= p.n {
		return false
	}
	p.index = i
	return true
}

package pipeline

// Guard is a single-permit gate ensuring at most one pipeline run at a
// time. Losers of the race are rejected immediately, never queued.
type Guard struct {
	sem chan struct{}
}

// NewGuard returns a released Guard.
func NewGuard() *Guard {
	return &Guard{sem: make(chan struct{}, 1)}
}

// TryAcquire takes the permit if it is free and reports whether it did.
func (g *Guard) TryAcquire() bool {
	select {
	case g.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns the permit. Calling Release without a matching
// TryAcquire is a programming error and panics.
func (g *Guard) Release() {
	select {
	case <-g.sem:
	default:
		panic("pipeline: guard released while not held")
	}
}

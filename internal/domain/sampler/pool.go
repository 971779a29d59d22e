package sampler

// Pool is an ordered multiset of item ids. An id's weight is the number of times it appears.
type Pool struct {
	entries []string
	weights map[string]int
}

func NewPool() *Pool {
	return &Pool{weights: make(map[string]int)}
}

func (p *Pool) Add(id string, weight int) {
	for i := 0; i < weight; i++ {
		p.entries = append(p.entries, id)
	}
	if weight > 0 {
		p.weights[id] += weight
	}
}

func (p *Pool) Len() int {
	return len(p.entries)
}

func (p *Pool) Empty() bool {
	return len(p.entries) == 0
}

// Distinct is the number of different ids in the pool.
func (p *Pool) Distinct() int {
	return len(p.weights)
}

func (p *Pool) Weight(id string) int {
	return p.weights[id]
}

// Entries returns a copy of the pool's entries in insertion order.
func (p *Pool) Entries() []string {
	return append([]string(nil), p.entries...)
}

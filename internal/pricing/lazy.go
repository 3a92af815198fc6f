package pricing

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Lazy defers building a Resolver until the first lookup. A failed build is
// not cached: the next lookup tries again.
type Lazy struct {
	build func() (Resolver, error)

	mu sync.Mutex
	r  Resolver
}

// NewLazy returns a resolver that calls build on first use.
func NewLazy(build func() (Resolver, error)) *Lazy {
	return &Lazy{build: build}
}

// UnitPricePerLinearFoot implements Resolver.
func (l *Lazy) UnitPricePerLinearFoot(t Triple) (float64, error) {
	r, err := l.resolver()
	if err != nil {
		return 0, err
	}
	return r.UnitPricePerLinearFoot(t)
}

func (l *Lazy) resolver() (Resolver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.r != nil {
		return l.r, nil
	}
	r, err := l.build()
	if err != nil {
		return nil, fmt.Errorf("pricing: resolver unavailable: %w", err)
	}
	l.r = r
	return r, nil
}

// Reloading serves lookups from a Table that can be swapped at runtime,
// e.g. when the pricing file changes on disk.
type Reloading struct {
	cur atomic.Pointer[Table]
}

// NewReloading returns a Reloading resolver starting at tb.
func NewReloading(tb *Table) *Reloading {
	r := &Reloading{}
	r.cur.Store(tb)
	return r
}

// Table returns the table currently in use.
func (r *Reloading) Table() *Table {
	return r.cur.Load()
}

// Swap replaces the active table.
func (r *Reloading) Swap(tb *Table) {
	r.cur.Store(tb)
}

// UnitPricePerLinearFoot implements Resolver.
func (r *Reloading) UnitPricePerLinearFoot(t Triple) (float64, error) {
	return r.cur.Load().UnitPricePerLinearFoot(t)
}

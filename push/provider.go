package push

import (
	// Go Internal Packages
	"context"
	"sync"
)

// Provider shares one Manager between every holder. The manager is created and connected
// on the first Acquire and disconnected when the last holder releases it.
type Provider struct {
	newManager func() *Manager

	mu      sync.Mutex
	manager *Manager
	refs    int
}

func NewProvider(newManager func() *Manager) *Provider {
	return &Provider{newManager: newManager}
}

// Acquire returns the shared manager, connecting it if needed. The release func must be
// called exactly once; extra calls are ignored.
func (p *Provider) Acquire(ctx context.Context) (*Manager, func(), error) {
	p.mu.Lock()
	if p.manager == nil {
		p.manager = p.newManager()
	}
	m := p.manager
	p.refs++
	p.mu.Unlock()

	if err := m.Connect(ctx); err != nil {
		p.release(m)
		return nil, nil, err
	}

	var once sync.Once
	return m, func() { once.Do(func() { p.release(m) }) }, nil
}

// Refs reports how many holders currently share the manager.
func (p *Provider) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

func (p *Provider) release(m *Manager) {
	p.mu.Lock()
	if p.manager != m {
		p.mu.Unlock()
		return
	}
	p.refs--
	last := p.refs == 0
	if last {
		p.manager = nil
	}
	p.mu.Unlock()

	if last {
		_ = m.Disconnect()
	}
}

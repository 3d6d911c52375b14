package machine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/valekar/aptos-core/types"
)

// moduleCache memoises compiled guest modules by the hash of their code.
type moduleCache struct {
	mu      sync.RWMutex
	modules map[types.HashValue]wazero.CompiledModule
	hits    uint64
	misses  uint64
}

func newModuleCache() *moduleCache {
	return &moduleCache{modules: make(map[types.HashValue]wazero.CompiledModule)}
}

// Metrics reports cache usage.
type Metrics struct {
	Hits     uint64
	Misses   uint64
	Elements int
}

func (c *moduleCache) get(ctx context.Context, r wazero.Runtime, code []byte) (wazero.CompiledModule, error) {
	key := types.Sha3_256(code)

	c.mu.RLock()
	compiled, ok := c.modules[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return compiled, nil
	}

	compiled, err := r.CompileModule(ctx, code)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if existing, ok := c.modules[key]; ok {
		// lost a race against another compile of the same code
		_ = compiled.Close(ctx)
		return existing, nil
	}
	c.modules[key] = compiled
	return compiled, nil
}

func (c *moduleCache) metrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Metrics{Hits: c.hits, Misses: c.misses, Elements: len(c.modules)}
}

func (c *moduleCache) close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, m := range c.modules {
		_ = m.Close(ctx)
		delete(c.modules, k)
	}
}

package health

import (
	"sort"
	"sync"
)

// Readiness 就绪状态聚合：按组件名登记，全部就绪才算就绪（/readyz 使用）
type Readiness struct {
	mu    sync.RWMutex
	parts map[string]bool
}

func New() *Readiness { return &Readiness{parts: make(map[string]bool)} }

// Set 登记组件就绪状态
func (r *Readiness) Set(component string, ready bool) {
	r.mu.Lock()
	r.parts[component] = ready
	r.mu.Unlock()
}

// Ready 总体就绪：至少登记一个组件且全部为 true
func (r *Readiness) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.parts) == 0 {
		return false
	}
	for _, ok := range r.parts {
		if !ok {
			return false
		}
	}
	return true
}

// Pending 未就绪的组件名（有序）
func (r *Readiness) Pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, ok := range r.parts {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

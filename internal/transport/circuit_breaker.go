package transport

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // 正常，事务直通总线
	BreakerOpen                         // 熔断，直接失败不触碰总线
	BreakerHalfOpen                     // 半开，放行少量试探事务
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen 总线连续失败后熔断，本次事务未发出
var ErrCircuitOpen = errors.New("transport: circuit breaker is open")

// CircuitBreaker 总线熔断器：连续失败达到阈值后快速失败，冷却后半开试探。
// 不做任何重试，失败照常返回给调用方。
type CircuitBreaker struct {
	mu           sync.Mutex
	state        BreakerState
	failures     int
	probes       int
	lastFailTime time.Time
	tripCount    int64

	threshold   int
	cooldown    time.Duration
	halfOpenMax int

	now func() time.Time
}

// NewCircuitBreaker threshold: 连续失败阈值；cooldown: Open → HalfOpen 的等待时间
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}
	return &CircuitBreaker{
		threshold:   threshold,
		cooldown:    cooldown,
		halfOpenMax: 1,
		now:         time.Now,
	}
}

// Call 在熔断保护下执行一次总线事务
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailTime) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.probes = 0
		fallthrough
	case BreakerHalfOpen:
		if cb.probes >= cb.halfOpenMax {
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		// 半开试探成功或正常成功，均回到 Closed
		cb.state = BreakerClosed
		cb.failures = 0
		cb.probes = 0
		return
	}

	cb.failures++
	cb.lastFailTime = cb.now()
	switch cb.state {
	case BreakerClosed:
		if cb.failures >= cb.threshold {
			cb.state = BreakerOpen
			cb.tripCount++
		}
	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.tripCount++
	}
}

// State 当前状态
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats 统计信息
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStats{
		State:     cb.state.String(),
		Failures:  cb.failures,
		TripCount: cb.tripCount,
	}
}

// BreakerStats 熔断器统计信息
type BreakerStats struct {
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	TripCount int64  `json:"trip_count"`
}

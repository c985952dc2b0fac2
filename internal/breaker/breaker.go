// v1
// internal/breaker/breaker.go

// Package breaker provides a small circuit breaker for the Kafka reader
// and writer paths. When the broker misbehaves repeatedly the breaker
// opens and fast-fails callers until a probe succeeds.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State enumerates the breaker lifecycle.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker fast-fails an operation.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker thresholds.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker tracks consecutive failures for one protected dependency.
type Breaker struct {
	name  string
	cfg   Config
	log   *slog.Logger
	probe func(ctx context.Context) error

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

// New builds a breaker. The probe, when non-nil, is invoked before the
// first operation after the reset timeout elapses.
func New(name string, cfg Config, log *slog.Logger, probe func(ctx context.Context) error) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	b := &Breaker{name: name, cfg: cfg, log: log, state: Closed, probe: probe}
	b.log.Info("breaker_created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op under breaker supervision. While open and within the
// reset timeout it returns ErrOpen without invoking op.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			b.log.Warn("breaker_fast_fail", "name", b.name, "sinceOpen", time.Since(openedAt).String())
			return ErrOpen
		}
		return b.tryProbeThenOp(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	b.mu.Lock()
	opened := b.state == Open
	b.mu.Unlock()
	if opened {
		return ErrOpen
	}
	return err
}

func (b *Breaker) tryProbeThenOp(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	had := b.recentFails
	b.mu.Unlock()
	b.log.Info("breaker_probe_start", "name", b.name, "previousFailures", had)

	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.log.Warn("breaker_probe_failed", "name", b.name, "err", err)
			b.mu.Lock()
			b.state = Open
			b.openedAt = time.Now()
			b.mu.Unlock()
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.log.Warn("breaker_halfopen_op_failed", "name", b.name, "err", err)
		b.mu.Lock()
		b.state = Open
		b.openedAt = time.Now()
		b.recentFails++
		b.mu.Unlock()
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker_closed_after_probe", "name", b.name)
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		b.log.Info("breaker_state_to_closed", "name", b.name, "from", b.state.String())
	}
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.log.Warn("operation_failure", "name", b.name, "failures", b.recentFails, "err", err)
	if b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker_opened", "name", b.name, "maxFailures", b.cfg.MaxFailures)
	}
}

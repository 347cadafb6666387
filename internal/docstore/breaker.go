package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tornado/internal/canvas"
)

// BreakerConfig holds configuration for the store circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// The breaker trips once MinRequests calls were seen in the interval and
	// the failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker wraps a Store in a circuit breaker. While open every call fails
// fast with gobreaker.ErrOpenState.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

var _ Store = (*Breaker)(nil)

func NewBreaker(next Store, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A missing project is an answer, not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) Load(ctx context.Context, projectID string) ([]canvas.Node, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Load(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	nodes, _ := res.([]canvas.Node)
	return nodes, nil
}

func (b *Breaker) Save(ctx context.Context, projectID string, nodes []canvas.Node) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Save(ctx, projectID, nodes)
	})
	return err
}

func (b *Breaker) List(ctx context.Context) ([]Project, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	projects, _ := res.([]Project)
	return projects, nil
}

func (b *Breaker) Create(ctx context.Context, name string) (Project, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Create(ctx, name)
	})
	if err != nil {
		return Project{}, err
	}
	p, _ := res.(Project)
	return p, nil
}

func (b *Breaker) Rename(ctx context.Context, projectID, name string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Rename(ctx, projectID, name)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, projectID string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, projectID)
	})
	return err
}

func (b *Breaker) Close() error {
	return b.next.Close()
}

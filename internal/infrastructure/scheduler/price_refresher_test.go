package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRefreshTarget struct {
	mock.Mock
}

func (m *MockRefreshTarget) Refresh(ctx context.Context, currencies []string) error {
	args := m.Called(ctx, currencies)
	return args.Error(0)
}

// countingTarget counts calls and optionally blocks until released
type countingTarget struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (c *countingTarget) Refresh(ctx context.Context, _ []string) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.err
}

func (c *countingTarget) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestDefaultPriceRefresherConfig(t *testing.T) {
	cfg := DefaultPriceRefresherConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.Equal(t, []string{"USD"}, cfg.Currencies)
	assert.NoError(t, cfg.Validate())
}

func TestPriceRefresherConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PriceRefresherConfig)
	}{
		{"zero interval", func(c *PriceRefresherConfig) { c.Interval = 0 }},
		{"zero timeout", func(c *PriceRefresherConfig) { c.Timeout = 0 }},
		{"no currencies", func(c *PriceRefresherConfig) { c.Currencies = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPriceRefresherConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("disabled config is always valid", func(t *testing.T) {
		assert.NoError(t, PriceRefresherConfig{}.Validate())
	})
}

func TestPriceRefresher_RunOnce(t *testing.T) {
	target := new(MockRefreshTarget)
	cfg := DefaultPriceRefresherConfig()
	cfg.Currencies = []string{" usd", "eur ", ""}
	r := NewPriceRefresher(target, nil, cfg)

	target.On("Refresh", mock.Anything, []string{"USD", "EUR"}).Return(nil).Once()
	require.NoError(t, r.RunOnce(context.Background()))

	target.On("Refresh", mock.Anything, []string{"USD", "EUR"}).Return(assert.AnError).Once()
	assert.ErrorIs(t, r.RunOnce(context.Background()), assert.AnError)

	stats := r.Stats()
	assert.Equal(t, int64(2), stats.Runs)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, assert.AnError.Error(), stats.LastErr)
	target.AssertExpectations(t)
}

func TestPriceRefresher_RunOnce_NoOverlap(t *testing.T) {
	target := &countingTarget{release: make(chan struct{})}
	r := NewPriceRefresher(target, nil, DefaultPriceRefresherConfig())

	errCh := make(chan error, 1)
	go func() { errCh <- r.RunOnce(context.Background()) }()

	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, r.RunOnce(context.Background()), ErrAlreadyRunning)

	close(target.release)
	assert.NoError(t, <-errCh)
}

func TestPriceRefresher_StartStop(t *testing.T) {
	target := &countingTarget{}
	cfg := DefaultPriceRefresherConfig()
	cfg.Interval = 10 * time.Millisecond
	r := NewPriceRefresher(target, nil, cfg)

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.IsRunning())
	require.NoError(t, r.Start(context.Background()))

	require.Eventually(t, func() bool { return target.count() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.IsRunning())
	require.NoError(t, r.Stop(ctx))
}

func TestPriceRefresher_Disabled(t *testing.T) {
	target := &countingTarget{}
	r := NewPriceRefresher(target, nil, PriceRefresherConfig{Enabled: false})

	require.NoError(t, r.Start(context.Background()))
	assert.False(t, r.IsRunning())
	assert.Zero(t, target.count())
}

func TestPriceRefresher_StartRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultPriceRefresherConfig()
	cfg.Interval = -time.Second
	r := NewPriceRefresher(&countingTarget{}, nil, cfg)

	assert.ErrorIs(t, r.Start(context.Background()), ErrInvalidConfig)
}

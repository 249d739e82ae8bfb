package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) Publish(context.Context, string, *Event) error {
	p.calls++
	return p.err
}

func testBreakerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestBreakingPublisher_ClosedPassesThrough(t *testing.T) {
	next := &countingPublisher{}
	p := NewBreakingPublisher(next, testBreakerConfig("test-closed"), testBreakerLogger())

	require.NoError(t, p.Publish(context.Background(), "orders.created", &Event{EventType: "order.created"}))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestBreakingPublisher_TripsAndSkipsBrokers(t *testing.T) {
	brokerErr := errors.New("dial tcp: connection refused")
	next := &countingPublisher{err: fmt.Errorf("publish event to orders.created: %w", brokerErr)}
	p := NewBreakingPublisher(next, testBreakerConfig("test-trip"), testBreakerLogger())

	for i := 0; i < 3; i++ {
		err := p.Publish(context.Background(), "orders.created", &Event{})
		require.ErrorIs(t, err, brokerErr)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(context.Background(), "orders.created", &Event{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, next.calls, "open breaker must not reach the brokers")
}

func TestBreakingPublisher_RecoversAfterTimeout(t *testing.T) {
	next := &countingPublisher{err: errors.New("broker down")}
	cfg := testBreakerConfig("test-recover")
	p := NewBreakingPublisher(next, cfg, testBreakerLogger())

	for i := 0; i < 3; i++ {
		_ = p.Publish(context.Background(), "orders.created", &Event{})
	}
	require.Equal(t, gobreaker.StateOpen, p.State())

	time.Sleep(cfg.Timeout + 20*time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, p.State())

	next.err = nil
	require.NoError(t, p.Publish(context.Background(), "orders.created", &Event{}))
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestBreakingPublisher_CallerCancellationDoesNotTrip(t *testing.T) {
	next := &countingPublisher{err: fmt.Errorf("publish event to orders.created: %w", context.Canceled)}
	p := NewBreakingPublisher(next, testBreakerConfig("test-cancel"), testBreakerLogger())

	for i := 0; i < 5; i++ {
		err := p.Publish(context.Background(), "orders.created", &Event{})
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
	assert.Equal(t, 5, next.calls)
}

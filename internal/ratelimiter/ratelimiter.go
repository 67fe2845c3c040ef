package ratelimiter

import (
	"context"
	"log/slog"
	"time"
)

const queueSize = 100

// SendFunc performs one delivery attempt against the destination API.
type SendFunc func(ctx context.Context) error

type request struct {
	ctx      context.Context
	send     SendFunc
	response chan error
}

// RateLimiter serializes deliveries through a single worker and spaces
// consecutive sends by at least the configured delay, so at most one
// delivery is in flight and the destination's rate limits are honored.
type RateLimiter struct {
	delay    time.Duration
	queue    chan request
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
	lastSent time.Time
}

func New(delay time.Duration, log *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		delay:  delay,
		queue:  make(chan request, queueSize),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	go rl.processQueue()

	return rl
}

// Do runs send through the paced queue and returns its error.
func (rl *RateLimiter) Do(ctx context.Context, send SendFunc) error {
	req := request{
		ctx:      ctx,
		send:     send,
		response: make(chan error, 1),
	}

	select {
	case rl.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}

	select {
	case err := <-req.response:
		return err
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}
}

func (rl *RateLimiter) Stop() {
	rl.cancel()
}

func (rl *RateLimiter) processQueue() {
	for {
		select {
		case req := <-rl.queue:
			req.response <- rl.handleRequest(req)
		case <-rl.ctx.Done():
			// Fail any queued requests; the queue is never closed
			// because producers may still be selecting on it.
			for {
				select {
				case req := <-rl.queue:
					req.response <- rl.ctx.Err()
				default:
					return
				}
			}
		}
	}
}

func (rl *RateLimiter) handleRequest(req request) error {
	if delay := rl.pendingDelay(time.Now()); delay > 0 {
		rl.log.DebugContext(req.ctx, "Rate limiting delivery",
			"delay", delay,
			"queueLen", len(rl.queue))

		select {
		case <-time.After(delay):
		case <-req.ctx.Done():
			return req.ctx.Err()
		case <-rl.ctx.Done():
			return rl.ctx.Err()
		}
	}

	err := req.send(req.ctx)
	rl.lastSent = time.Now()

	return err
}

// pendingDelay returns how long the worker must still wait so that two
// sends are never closer together than the configured delay.
func (rl *RateLimiter) pendingDelay(now time.Time) time.Duration {
	if rl.lastSent.IsZero() {
		return 0
	}

	return max(rl.delay-now.Sub(rl.lastSent), 0)
}

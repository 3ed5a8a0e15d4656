// Package poller drives the long-poll ingestion loop: it acknowledges
// updates by advancing the offset before dispatch and fans work out to
// a bounded pool, keeping each user's updates strictly ordered.
package poller

import (
	"context"
	"sync"
	"time"

	stderrors "intake-bot/internal/common/errors"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/common/metrics"
	"intake-bot/internal/common/observability"
	"intake-bot/internal/telegram"
)

const (
	backoffStep    = time.Second
	backoffMax     = 30 * time.Second
	conflictPause  = 5 * time.Second
	handlerTimeout = 60 * time.Second
)

// Feed is what the poller needs from the Bot API client.
type Feed interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, telegram.Result)
	DeleteWebhook(ctx context.Context, dropPending bool) telegram.Result
}

// Handler consumes one update. Calls for the same user are serialized
// by the poller; calls for different users run concurrently.
type Handler interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

type Poller struct {
	feed    Feed
	handler Handler

	pollTimeout int
	slots       chan struct{}
	userQueue   *userQueue
	wg          sync.WaitGroup

	obs    *observability.Observability
	logger logger.Logger
}

func New(feed Feed, handler Handler, pollTimeout, workers int, obs *observability.Observability, log logger.Logger) *Poller {
	if workers < 1 {
		workers = 1
	}
	return &Poller{
		feed:        feed,
		handler:     handler,
		pollTimeout: pollTimeout,
		slots:       make(chan struct{}, workers),
		userQueue:   newUserQueue(),
		obs:         obs,
		logger:      log,
	}
}

// Run polls until the context is canceled or the token is rejected.
// It always drains in-flight workers before returning.
func (p *Poller) Run(ctx context.Context) error {
	defer p.wg.Wait()

	var offset int64
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, res := p.feed.GetUpdates(ctx, offset, p.pollTimeout)
		if !res.OK {
			if ctx.Err() != nil {
				return nil
			}
			switch res.ErrorCode {
			case telegram.ErrorCodeUnauthorized:
				return stderrors.NewTelegramUnauthorizedError(res.Description)
			case telegram.ErrorCodeConflict:
				// another consumer grabbed the feed; reclaim it
				metrics.PollErrors.WithLabelValues("conflict").Inc()
				p.logger.WithError(stderrors.NewTelegramConflictError(res.Description)).
					Warn("update feed conflict, reclaiming", map[string]interface{}{
						"description": res.Description,
					})
				p.feed.DeleteWebhook(ctx, false)
				if !sleepCtx(ctx, conflictPause) {
					return nil
				}
				continue
			}

			failures++
			metrics.PollErrors.WithLabelValues("transport").Inc()
			delay := time.Duration(failures) * backoffStep
			if delay > backoffMax {
				delay = backoffMax
			}
			p.logger.Warn("poll failed, backing off", map[string]interface{}{
				"failures":    failures,
				"delay":       delay.String(),
				"description": res.Description,
			})
			if !sleepCtx(ctx, delay) {
				return nil
			}
			continue
		}
		failures = 0

		for _, u := range updates {
			metrics.UpdatesReceived.Inc()
			// advance past this update before touching it: a crashing
			// handler must not wedge the feed on redelivery
			if next := u.UpdateID + 1; next > offset {
				offset = next
			}
			p.dispatch(ctx, u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u telegram.Update) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return
	}

	p.wg.Add(1)
	metrics.WorkersActive.Inc()

	// the queue ticket is taken here, in poll order, so updates for one
	// user run strictly in the order they arrived
	wait, leave := p.userQueue.enter(updateUserKey(u))

	go func() {
		defer func() {
			<-p.slots
			metrics.WorkersActive.Dec()
			p.wg.Done()
		}()
		defer leave()
		if wait != nil {
			<-wait
		}

		// handling outlives the poll loop's cancellation so drained
		// workers can finish their sends
		hctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		start := time.Now()
		status := "success"
		func() {
			defer func() {
				if r := recover(); r != nil {
					status = "panic"
					p.logger.Error("update handler panicked", map[string]interface{}{
						"update_id": u.UpdateID,
						"panic":     r,
					})
				}
			}()
			p.handler.HandleUpdate(hctx, u)
		}()

		elapsed := time.Since(start)
		metrics.UpdatesProcessed.WithLabelValues(status).Inc()
		metrics.UpdateDuration.Observe(elapsed.Seconds())
		if p.obs != nil {
			p.obs.RecordUpdateProcessed(hctx, status)
			p.obs.RecordUpdateDuration(hctx, elapsed, status)
		}
	}()
}

// updateUserKey picks the serialization key for an update, 0 when it
// carries no user.
func updateUserKey(u telegram.Update) int64 {
	if u.Message != nil && u.Message.Chat != nil {
		return u.Message.Chat.ID
	}
	if u.CallbackQuery != nil && u.CallbackQuery.From != nil {
		return u.CallbackQuery.From.ID
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// userQueue chains workers per user key. Each entrant waits for its
// predecessor's done channel, so same-user updates run one at a time
// in arrival order. Idle entries are dropped so the map does not grow
// with the user base. Key 0 (no user) is never chained.
type userQueue struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
	refs  map[int64]int
}

func newUserQueue() *userQueue {
	return &userQueue{
		tails: make(map[int64]chan struct{}),
		refs:  make(map[int64]int),
	}
}

// enter must be called in dispatch order. The returned wait channel is
// nil when the caller may run immediately; leave must always be called
// once handling ends.
func (q *userQueue) enter(key int64) (wait <-chan struct{}, leave func()) {
	if key == 0 {
		return nil, func() {}
	}

	q.mu.Lock()
	prev := q.tails[key]
	done := make(chan struct{})
	q.tails[key] = done
	q.refs[key]++
	q.mu.Unlock()

	return prev, func() {
		close(done)
		q.mu.Lock()
		q.refs[key]--
		if q.refs[key] == 0 {
			delete(q.refs, key)
			delete(q.tails, key)
		}
		q.mu.Unlock()
	}
}

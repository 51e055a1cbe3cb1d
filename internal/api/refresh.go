package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/seer/internal/tokens"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

func (s refreshState) String() string {
	if s == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

type refreshFunc func(ctx context.Context, refreshToken string) (tokens.Pair, error)

// waiter is a request blocked behind the in-flight refresh. Its owner
// replays the descriptor once done delivers nil.
type waiter struct {
	req  *request
	done chan error
}

// refresher serializes token refreshes for one Client. At most one refresh
// call is in flight; every 401 that arrives meanwhile queues behind it.
type refresher struct {
	mu    sync.Mutex
	state refreshState
	queue []*waiter

	store    tokens.Store
	refresh  refreshFunc
	onReauth func(error)
	log      *zap.Logger
	timeout  time.Duration
}

func newRefresher(store tokens.Store, fn refreshFunc, onReauth func(error), log *zap.Logger) *refresher {
	return &refresher{
		store:    store,
		refresh:  fn,
		onReauth: onReauth,
		log:      log,
		timeout:  refreshTimeout,
	}
}

// recover blocks until req may be replayed. A nil result means the store
// holds a fresh access token.
func (r *refresher) recover(ctx context.Context, req *request) error {
	r.mu.Lock()
	if r.state == stateRefreshing {
		w := &waiter{req: req, done: make(chan error, 1)}
		r.queue = append(r.queue, w)
		r.mu.Unlock()

		r.log.Debug("queued behind token refresh",
			zap.String("request_id", req.id),
			zap.String("path", req.path()),
		)
		select {
		case err := <-w.done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// A store read failure says nothing about the session, so it fails this
	// request only.
	current, err := r.store.Tokens(ctx)
	if err != nil {
		r.mu.Unlock()
		return readTokensError(req, err)
	}
	// Another request finished a refresh after this one was sent.
	if current.Access != "" && current.Access != req.sentToken {
		r.mu.Unlock()
		return nil
	}
	r.state = stateRefreshing
	r.mu.Unlock()

	err = r.run(ctx, req)

	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.state = stateIdle
	r.mu.Unlock()

	for _, w := range queue {
		w.done <- err
	}
	return err
}

// run performs one refresh cycle. The caller's cancellation is ignored so an
// abandoned request cannot tear down the session for everyone queued.
func (r *refresher) run(parent context.Context, req *request) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	current, err := r.store.Tokens(ctx)
	if err != nil {
		return readTokensError(req, err)
	}
	if current.Refresh == "" {
		return r.fail(ctx, &Error{
			Kind:   KindUnauthorized,
			Method: req.method,
			Path:   req.path(),
			Status: http.StatusUnauthorized,
			Detail: "no refresh token, log in again",
			Err:    ErrReauthRequired,
		})
	}

	r.log.Info("refreshing access token", zap.String("trigger", req.path()))
	fresh, err := r.refresh(ctx, current.Refresh)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("%w: %w", ErrReauthRequired, err))
	}

	next := tokens.Pair{Access: fresh.Access, Refresh: current.Refresh}
	if fresh.Refresh != "" {
		next.Refresh = fresh.Refresh
	}
	if err := r.store.SetTokens(ctx, next); err != nil {
		return r.fail(ctx, fmt.Errorf("%w: store tokens: %w", ErrReauthRequired, err))
	}
	r.log.Info("access token refreshed", zap.Bool("rotated", fresh.Refresh != ""))
	return nil
}

func readTokensError(req *request, err error) error {
	return &Error{Kind: KindRequest, Method: req.method, Path: req.path(), Err: fmt.Errorf("read tokens: %w", err)}
}

func (r *refresher) fail(ctx context.Context, err error) error {
	if clearErr := r.store.Clear(ctx); clearErr != nil {
		r.log.Warn("failed to clear tokens", zap.Error(clearErr))
	}
	if r.onReauth != nil {
		r.onReauth(err)
	}
	return err
}

func (r *refresher) current() refreshState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *refresher) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

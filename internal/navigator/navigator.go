// Package navigator runs route playbacks in the background and keeps a record of
// them.
package navigator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"navigation-simulator/internal/player"
	"navigation-simulator/internal/route"
)

// ErrEmptyRoute is returned when a route has no step to play.
var ErrEmptyRoute = errors.New("route has no steps")

// SessionStore records playbacks. It is optional.
type SessionStore interface {
	RecordSession(ctx context.Context, session player.Session, routeID int64, stepCount int) error
	FinishSession(ctx context.Context, res player.Result) error
}

// Navigator owns the player of one map and launches playbacks on it. Launching
// a playback supersedes the one running.
type Navigator struct {
	ctx    context.Context
	player *player.Player
	store  SessionStore
	log    *zap.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	current route.Route
	last    player.Result
}

// New returns a navigator whose playbacks stop when ctx is done. store may be nil.
func New(ctx context.Context, p *player.Player, store SessionStore, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{ctx: ctx, player: p, store: store, log: log}
}

// Launch starts rt in the background and returns its session. routeID names the
// stored route, 0 when it was not stored.
func (n *Navigator) Launch(rt route.Route, routeID int64) (player.Session, error) {
	// current must name the route of the live session
	n.mu.Lock()
	pb := n.player.Start(rt)
	if pb != nil {
		n.current = rt
	}
	n.mu.Unlock()
	if pb == nil {
		return player.Session{}, ErrEmptyRoute
	}

	if n.store != nil {
		if err := n.store.RecordSession(n.ctx, pb.Session(), routeID, pb.StepCount()); err != nil {
			n.log.Warn("record session", zap.String("session", pb.Session().String()), zap.Error(err))
		}
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		res, err := n.player.Run(n.ctx, pb)
		if err != nil && !errors.Is(err, context.Canceled) {
			n.log.Error("playback", zap.String("session", pb.Session().String()), zap.Error(err))
		}
		n.mu.Lock()
		n.last = res
		n.mu.Unlock()
		n.finish(res)
	}()
	return pb.Session(), nil
}

func (n *Navigator) finish(res player.Result) {
	if n.store == nil {
		return
	}
	// the root context may already be cancelled on shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.store.FinishSession(ctx, res); err != nil {
		n.log.Warn("finish session", zap.String("session", res.Session.String()), zap.Error(err))
	}
}

// Status returns the live playback's state and route. ok is false before the
// first launch.
func (n *Navigator) Status() (player.Status, route.Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st := n.player.Status()
	return st, n.current, st.Session != player.Session{}
}

// Last returns the result of the most recently finished playback.
func (n *Navigator) Last() player.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Wait blocks until every launched playback has returned.
func (n *Navigator) Wait() { n.wg.Wait() }

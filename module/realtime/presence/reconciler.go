package presence

import (
	"context"
	"sort"
	"time"

	"Linkup/logger"
	"Linkup/module/chat/model"
	errs "Linkup/tools/errs"
	"Linkup/tools/safe"

	"github.com/pkg/errors"
)

// FlagStore is the persisted side of presence: the is_online/last_active
// projection on the user record.
type FlagStore interface {
	MarkOnline(ctx context.Context, userIDs []string, at time.Time) error
	MarkOffline(ctx context.Context, userIDs []string, at time.Time) error
	OnlineUsers(ctx context.Context) ([]*model.User, error)
}

// SnapshotCache is the optional redis projection of the online set.
type SnapshotCache interface {
	Refresh(ctx context.Context, users []string, ttl time.Duration) error
}

// Broadcaster pushes the merged online set to every connection.
type Broadcaster interface {
	Broadcast(event string, data any)
}

const EventOnlineUsers = "online-users"

// Reconciler periodically synchronizes the registry with the persisted
// flags. The transport's disconnect signal is not fully reliable: the
// registry alone under-reports offline transitions after ungraceful drops,
// and the persisted flag alone would stay stale forever. Each sweep
// re-asserts is_online for registry residents (healing missed writes) and
// flips off persisted-online users who are absent from the registry and
// inactive past the threshold. Sweeps are idempotent, so an overlapping or
// repeated tick is harmless.
type Reconciler struct {
	reg      *Registry
	flags    FlagStore
	cache    SnapshotCache // may be nil
	notify   Broadcaster   // may be nil
	interval time.Duration
	inactive time.Duration

	cancel context.CancelFunc
	doneCh chan struct{}
}

func NewReconciler(reg *Registry, flags FlagStore, cache SnapshotCache, notify Broadcaster, interval, inactive time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if inactive <= 0 {
		inactive = 2 * time.Minute
	}
	return &Reconciler{
		reg:      reg,
		flags:    flags,
		cache:    cache,
		notify:   notify,
		interval: interval,
		inactive: inactive,
	}
}

// Start launches the sweep loop. Call Stop to cancel it; Start is not
// reentrant.
func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.doneCh = make(chan struct{})

	safe.Go(func() {
		defer close(r.doneCh)
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				safe.Run(func() {
					if err := r.Sweep(ctx); err != nil {
						logger.Errorf("[presence] sweep: %v", err)
					}
				})
			}
		}
	})
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.doneCh
}

// Sweep runs one reconciliation pass. A failed store write does not abort
// the pass; the next tick retries naturally. The returned error, if any,
// carries the reconciliation code so callers can classify it.
func (r *Reconciler) Sweep(ctx context.Context) error {
	now := time.Now()
	connected := r.reg.OnlineUsers()
	var sweepErr error

	if len(connected) > 0 {
		if err := r.flags.MarkOnline(ctx, connected, now); err != nil {
			sweepErr = errors.WithMessage(errs.ErrReconciliation.WithDetail(err.Error()), "mark online")
		}
		if r.cache != nil {
			if err := r.cache.Refresh(ctx, connected, 2*r.interval); err != nil {
				logger.Warnf("[presence] snapshot refresh: %v", err)
			}
		}
	}

	persisted, err := r.flags.OnlineUsers(ctx)
	if err != nil {
		return errors.WithMessage(errs.ErrReconciliation.WithDetail(err.Error()), "load flags")
	}

	inReg := make(map[string]bool, len(connected))
	for _, u := range connected {
		inReg[u] = true
	}

	var stale []string
	for _, u := range persisted {
		if inReg[u.ID] {
			continue
		}
		if now.Sub(u.LastActive) > r.inactive {
			stale = append(stale, u.ID)
		}
	}
	if len(stale) > 0 {
		if err := r.flags.MarkOffline(ctx, stale, now); err != nil {
			sweepErr = errors.WithMessage(errs.ErrReconciliation.WithDetail(err.Error()), "mark offline")
		}
	}

	if r.notify != nil {
		r.notify.Broadcast(EventOnlineUsers, mergeOnline(connected, persisted, stale))
	}
	return sweepErr
}

// mergeOnline is registry residents plus still-valid persisted-online
// users, minus the ones this sweep just reclaimed.
func mergeOnline(connected []string, persisted []*model.User, stale []string) []string {
	staleSet := make(map[string]bool, len(stale))
	for _, u := range stale {
		staleSet[u] = true
	}
	set := make(map[string]bool, len(connected)+len(persisted))
	for _, u := range connected {
		set[u] = true
	}
	for _, u := range persisted {
		if !staleSet[u.ID] {
			set[u.ID] = true
		}
	}
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// OnlineUnion is the connect-time variant of the merge: registry residents
// plus every persisted-online id, with no staleness pruning (the sweep will
// prune on its next tick).
func OnlineUnion(ctx context.Context, reg *Registry, flags FlagStore) []string {
	connected := reg.OnlineUsers()
	persisted, err := flags.OnlineUsers(ctx)
	if err != nil {
		logger.Warnf("[presence] online union load flags: %v", err)
		return connected
	}
	return mergeOnline(connected, persisted, nil)
}

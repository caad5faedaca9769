// Package retention implements spec §4.4: the periodic expire worker that
// claims and tombstones messages past their expiresAt, and the plan-gated
// prune pass. Grounded on the teacher's `server/shutdown.go` goroutine
// lifecycle (a ticker loop selecting on a stop channel) generalized from
// topic garbage collection to message tombstoning.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/metrics"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/store"
)

type Worker struct {
	store    store.Adapter
	hub      *realtime.Hub
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	interval time.Duration
	batch    int

	freeRetention    time.Duration
	premiumRetention time.Duration

	stop chan struct{}
	done chan struct{}
}

func New(
	st store.Adapter,
	hub *realtime.Hub,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
	interval time.Duration,
	batch int,
	freeRetention, premiumRetention time.Duration,
) *Worker {
	return &Worker{
		store:            st,
		hub:              hub,
		metrics:          m,
		log:              log,
		interval:         interval,
		batch:            batch,
		freeRetention:    freeRetention,
		premiumRetention: premiumRetention,
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Run drives the expire loop until Stop is called. Intended to be started
// in its own goroutine at process startup.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.expirePass(ctx)
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals the loop to exit and blocks until it has.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

// expirePass implements §4.4's expire-worker steps: select candidates,
// tombstone each with its own update (not one bulk write), re-fetch and
// emit. Partial emit failures are logged
// but never rewind the DB state, since the tombstone write already
// committed.
func (w *Worker) expirePass(ctx context.Context) {
	now := time.Now().UTC()
	candidates, err := w.store.MessagesExpiring(ctx, now, w.batch)
	if err != nil {
		w.log.Errorw("expire worker: failed to list candidates", "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}
	w.metrics.ExpireJobBatchSize.Observe(float64(len(candidates)))

	for _, m := range candidates {
		tombstonedAt := time.Now().UTC()
		update := map[string]interface{}{
			"deletedForAll":     true,
			"deletedAt":         tombstonedAt,
			"rawContent":        "",
			"contentCiphertext": "",
			"translations":      map[string]string{},
		}
		if err := w.store.MessageUpdate(ctx, m.ID, update); err != nil {
			w.log.Errorw("expire worker: failed to tombstone message", "error", err, "messageId", m.ID)
			continue
		}
		w.metrics.ExpireJobTombstoned.Inc()

		fresh, err := w.store.MessageGet(ctx, m.ID)
		if err != nil {
			w.log.Errorw("expire worker: failed to re-fetch tombstoned message", "error", err, "messageId", m.ID)
			continue
		}

		ev, err := realtime.NewEvent(realtime.EventMessageUpsert, fresh.ChatRoomID, map[string]interface{}{
			"roomId": fresh.ChatRoomID,
			"item":   tombstoneView(fresh),
		})
		if err != nil {
			w.log.Errorw("expire worker: failed to build upsert event", "error", err, "messageId", m.ID)
			continue
		}
		w.hub.Publish(ev)
	}
}

// tombstoneView is the minimal shape the worker can emit without the
// full caller-scoped composition internal/messagesvc does on read — it
// has no specific recipient in mind, so it carries no encryptedKeyForMe
// or translatedForMe.
func tombstoneView(m *domain.Message) map[string]interface{} {
	return map[string]interface{}{
		"id":            m.ID,
		"chatRoomId":    m.ChatRoomID,
		"senderId":      m.SenderID,
		"createdAt":     m.CreatedAt,
		"deletedForAll": true,
		"deletedAt":     m.DeletedAt,
		"deletedById":   m.DeletedByID,
		"rawContent":    nil,
		"contentCiphertext": nil,
		"attachments":   []domain.Attachment{},
	}
}

// PrunePass implements spec §4.4's plan-gated prune: FREE senders'
// messages older than freeRetention are tombstoned (deletedForAll set,
// rawContent cleared) and their rows stay in the store; PREMIUM has no
// prune ceiling.
func (w *Worker) PrunePass(ctx context.Context, users store.Users) {
	cutoff := time.Now().UTC().Add(-w.freeRetention)
	old, err := w.store.MessagesOlderThan(ctx, cutoff, w.batch)
	if err != nil {
		w.log.Errorw("prune pass: failed to list candidates", "error", err)
		return
	}
	for _, m := range old {
		sender, err := users.UserGet(ctx, m.SenderID)
		if err != nil || sender.Plan != domain.PlanFree {
			continue
		}
		if err := w.store.MessageUpdate(ctx, m.ID, map[string]interface{}{
			"deletedForAll": true,
			"deletedAt":     time.Now().UTC(),
			"rawContent":    "",
		}); err != nil {
			w.log.Errorw("prune pass: failed to prune message", "error", err, "messageId", m.ID)
		}
	}
}

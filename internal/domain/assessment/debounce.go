package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultAutosaveDelay is how long input must be quiet before a queued
// snapshot is written.
const DefaultAutosaveDelay = 500 * time.Millisecond

const autosaveWriteTimeout = 10 * time.Second

// Autosaver debounces draft saves so a burst of keystrokes produces a single
// write. Each Queue call replaces the pending snapshot wholesale, so the most
// recently submitted snapshot always wins over any earlier in-flight write.
// Writes for the same draft are serialized through a per-draft lock.
type Autosaver struct {
	svc   *Service
	delay time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSave
	locks   map[uuid.UUID]*sync.Mutex
}

type pendingSave struct {
	timer *time.Timer
	patch DraftPatch
}

// NewAutosaver creates an Autosaver over the given service. A non-positive
// delay falls back to DefaultAutosaveDelay.
func NewAutosaver(svc *Service, delay time.Duration, log zerolog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		svc:     svc,
		delay:   delay,
		log:     log,
		pending: make(map[uuid.UUID]*pendingSave),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Queue records the latest form snapshot for the draft and (re)starts the
// debounce timer. The snapshot is written once input has been quiet for the
// configured delay.
func (as *Autosaver) Queue(draftID uuid.UUID, patch DraftPatch) {
	as.mu.Lock()
	defer as.mu.Unlock()

	p, ok := as.pending[draftID]
	if !ok {
		p = &pendingSave{}
		as.pending[draftID] = p
	}
	p.patch = patch
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(as.delay, func() { as.fire(draftID) })
}

func (as *Autosaver) fire(draftID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveWriteTimeout)
	defer cancel()
	if err := as.Flush(ctx, draftID); err != nil {
		as.log.Error().Err(err).
			Str("assessment_id", draftID.String()).
			Msg("autosave failed")
	}
}

// Flush writes the pending snapshot immediately, if any. Used by the timer
// and by "save & exit", which must not lose a snapshot still in the debounce
// window.
func (as *Autosaver) Flush(ctx context.Context, draftID uuid.UUID) error {
	as.mu.Lock()
	p, ok := as.pending[draftID]
	if ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(as.pending, draftID)
	}
	lock := as.locks[draftID]
	if lock == nil {
		lock = &sync.Mutex{}
		as.locks[draftID] = lock
	}
	as.mu.Unlock()

	if !ok {
		return nil
	}

	lock.Lock()
	defer lock.Unlock()
	_, err := as.svc.SaveDraft(ctx, draftID, p.patch)
	return err
}

// Forget drops any pending snapshot and the write lock for a draft. Called
// when the draft leaves the wizard (payment captured, save & exit).
func (as *Autosaver) Forget(draftID uuid.UUID) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if p, ok := as.pending[draftID]; ok && p.timer != nil {
		p.timer.Stop()
	}
	delete(as.pending, draftID)
	delete(as.locks, draftID)
}

// Pending reports whether a snapshot is waiting to be written for the draft.
func (as *Autosaver) Pending(draftID uuid.UUID) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	_, ok := as.pending[draftID]
	return ok
}

package memory

import (
	"time"

	"ai-manuscript-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps assistant sessions in process memory. There is
// no durable store behind it: a session lives until reset, idle eviction
// or process exit, whichever comes first.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Idle sessions expire after 12 hours; a writing session is long but
	// not unbounded. Expired items are purged every 10 minutes.
	c := cache.New(12*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId uuid.UUID) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}

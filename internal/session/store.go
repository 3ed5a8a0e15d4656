// Package session keeps per-user conversation state. The in-memory
// maps are authoritative for the lifetime of the process; a mirror
// (Redis) receives write-through copies so state survives restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"intake-bot/internal/common/database"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "intake:state:"
	langKeyPrefix  = "intake:lang:"

	mirrorTimeout = 3 * time.Second
)

// Mirror is the durable copy behind the in-memory cache. Reads are
// consulted only on a cache miss; writes never roll back the cache.
type Mirror interface {
	GetState(ctx context.Context, userID int64) (*models.Session, error)
	SetState(ctx context.Context, sess *models.Session) error
	DelState(ctx context.Context, userID int64) error
	GetLang(ctx context.Context, userID int64) (string, error)
	SetLang(ctx context.Context, userID int64, lang string) error
}

// Store is the session facade used by the conversation engine.
type Store struct {
	mu sync.Mutex
	// nil value = known absent, so a repeated miss never hits the mirror
	sessions map[int64]*models.Session
	langs    map[int64]string

	mirror Mirror
	logger logger.Logger
}

func NewStore(mirror Mirror, log logger.Logger) *Store {
	return &Store{
		sessions: make(map[int64]*models.Session),
		langs:    make(map[int64]string),
		mirror:   mirror,
		logger:   log,
	}
}

// Get returns the user's session, or nil when the user has none. The
// mirror is consulted once per unknown user; the result, present or
// absent, is cached.
func (s *Store) Get(ctx context.Context, userID int64) *models.Session {
	s.mu.Lock()
	sess, cached := s.sessions[userID]
	s.mu.Unlock()
	if cached {
		return sess
	}

	var fetched *models.Session
	if s.mirror != nil {
		var err error
		fetched, err = s.mirror.GetState(ctx, userID)
		if err != nil {
			s.logger.Warn("session mirror read failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	s.mu.Lock()
	// another goroutine may have written meanwhile; keep its value
	if sess, cached = s.sessions[userID]; !cached {
		s.sessions[userID] = fetched
		sess = fetched
	}
	s.mu.Unlock()
	return sess
}

// Put stores the session and mirrors it out.
func (s *Store) Put(ctx context.Context, sess *models.Session) {
	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()

	if s.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := s.mirror.SetState(mctx, sess); err != nil {
		s.logger.Warn("session mirror write failed", map[string]interface{}{
			"user_id": sess.UserID,
			"error":   err.Error(),
		})
	}
}

// Clear removes the user's session. The absence is cached.
func (s *Store) Clear(ctx context.Context, userID int64) {
	s.mu.Lock()
	s.sessions[userID] = nil
	s.mu.Unlock()

	if s.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := s.mirror.DelState(mctx, userID); err != nil {
		s.logger.Warn("session mirror delete failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// Lang returns the user's stored language code, empty when none is
// known.
func (s *Store) Lang(ctx context.Context, userID int64) string {
	s.mu.Lock()
	lang, cached := s.langs[userID]
	s.mu.Unlock()
	if cached {
		return lang
	}

	var fetched string
	if s.mirror != nil {
		var err error
		fetched, err = s.mirror.GetLang(ctx, userID)
		if err != nil {
			s.logger.Warn("language mirror read failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	s.mu.Lock()
	if lang, cached = s.langs[userID]; !cached {
		s.langs[userID] = fetched
		lang = fetched
	}
	s.mu.Unlock()
	return lang
}

// SetLang stores the user's language choice and mirrors it out.
func (s *Store) SetLang(ctx context.Context, userID int64, lang string) {
	s.mu.Lock()
	s.langs[userID] = lang
	s.mu.Unlock()

	if s.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := s.mirror.SetLang(mctx, userID, lang); err != nil {
		s.logger.Warn("language mirror write failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// RedisMirror persists sessions and language choices as Redis keys.
type RedisMirror struct {
	client *database.RedisClient
}

func NewRedisMirror(client *database.RedisClient) *RedisMirror {
	return &RedisMirror{client: client}
}

func stateKey(userID int64) string {
	return fmt.Sprintf("%s%d", stateKeyPrefix, userID)
}

func langKey(userID int64) string {
	return fmt.Sprintf("%s%d", langKeyPrefix, userID)
}

func (m *RedisMirror) GetState(ctx context.Context, userID int64) (*models.Session, error) {
	raw, err := m.client.Get(ctx, stateKey(userID))
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (m *RedisMirror) SetState(ctx context.Context, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.client.Set(ctx, stateKey(sess.UserID), string(raw), 0)
}

func (m *RedisMirror) DelState(ctx context.Context, userID int64) error {
	return m.client.Del(ctx, stateKey(userID))
}

func (m *RedisMirror) GetLang(ctx context.Context, userID int64) (string, error) {
	lang, err := m.client.Get(ctx, langKey(userID))
	if err == redis.Nil {
		return "", nil
	}
	return lang, err
}

func (m *RedisMirror) SetLang(ctx context.Context, userID int64, lang string) error {
	return m.client.Set(ctx, langKey(userID), lang, 0)
}

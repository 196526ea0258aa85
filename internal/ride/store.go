package ride

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "ride:session:"
	sessionIndexKey  = "ride:sessions"
)

// SessionStore is the persistence collaborator for live sessions. Ride id
// uniqueness is the only concurrency guarantee the engine asks of it.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, rideID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, rideID string) error
	List(ctx context.Context, userID string) ([]*Session, error)
}

// RedisSessionStore keeps sessions as JSON documents keyed by ride id, plus
// an index set for listing.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Create(ctx context.Context, sess *Session) error {
	return s.write(ctx, sess)
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *Session) error {
	return s.write(ctx, sess)
}

func (s *RedisSessionStore) write(ctx context.Context, sess *Session) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.RideID, payload, 0)
	pipe.SAdd(ctx, sessionIndexKey, sess.RideID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, rideID string) (*Session, error) {
	if s.rdb == nil {
		return nil, ErrStoreUnavailable
	}
	payload, err := s.rdb.Get(ctx, sessionKeyPrefix+rideID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, rideID string) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+rideID)
	pipe.SRem(ctx, sessionIndexKey, rideID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) List(ctx context.Context, userID string) ([]*Session, error) {
	if s.rdb == nil {
		return nil, ErrStoreUnavailable
	}
	ids, err := s.rdb.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			// Stale index entry; drop it.
			_ = s.rdb.SRem(ctx, sessionIndexKey, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if userID != "" && sess.UserID != userID {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

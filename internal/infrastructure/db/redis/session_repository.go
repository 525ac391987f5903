package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authcore/identity-system/internal/core/domain"
)

// SessionRepository implements ports.SessionRepository on Redis.
//
// Layout:
//
//	session:<org>:<token>        JSON session document, TTL = time to deadline
//	user_sessions:<org>:<user>   set of the user's tokens (pruned by sweeps)
//
// Redis evicts session values at their deadline on its own; DeleteExpired
// only has to prune index members whose value is gone, which makes the sweep
// idempotent and safe to run from many workers at once.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already past its deadline", session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.OrgID, session.Token), payload, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.OrgID, session.UserID), session.Token)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *SessionRepository) FindByToken(ctx context.Context, token, orgID string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(orgID, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) FindActiveSessions(ctx context.Context, userID, orgID string, now time.Time) ([]*domain.Session, error) {
	indexKey := userSessionsKey(orgID, userID)
	tokens, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*domain.Session
	for _, token := range tokens {
		session, err := r.FindByToken(ctx, token, orgID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				// Value evicted by TTL; drop the dangling index member.
				_ = r.client.SRem(ctx, indexKey, token).Err()
				continue
			}
			return nil, err
		}
		if session.IsActive(now) {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token, orgID string) error {
	session, err := r.FindByToken(ctx, token, orgID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(orgID, token))
	pipe.SRem(ctx, userSessionsKey(orgID, session.UserID), token)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID, orgID string) (int64, error) {
	indexKey := userSessionsKey(orgID, userID)
	tokens, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, token := range tokens {
		n, err := r.client.Del(ctx, sessionKey(orgID, token)).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	if err := r.client.Del(ctx, indexKey).Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// DeleteExpired walks the per-user index sets and prunes members whose
// session value has been evicted. Returns the number of pruned members;
// zero is a normal outcome.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var pruned int64
	iter := r.client.Scan(ctx, 0, "user_sessions:*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		tokens, err := r.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return pruned, err
		}
		for _, token := range tokens {
			// user_sessions:<org>:<user> → session key shares the org segment.
			orgID := orgFromIndexKey(indexKey)
			exists, err := r.client.Exists(ctx, sessionKey(orgID, token)).Result()
			if err != nil {
				return pruned, err
			}
			if exists == 0 {
				n, err := r.client.SRem(ctx, indexKey, token).Result()
				if err != nil {
					return pruned, err
				}
				pruned += n
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, err
	}
	return pruned, nil
}

func sessionKey(orgID, token string) string {
	return fmt.Sprintf("session:%s:%s", orgID, token)
}

func userSessionsKey(orgID, userID string) string {
	return fmt.Sprintf("user_sessions:%s:%s", orgID, userID)
}

func orgFromIndexKey(indexKey string) string {
	// "user_sessions:<org>:<user>"
	const prefix = "user_sessions:"
	rest := indexKey[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			return rest[:i]
		}
	}
	return rest
}

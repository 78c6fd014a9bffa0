package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quadtrivia/internal/domain"
)

// CredentialIssuer obtains a fresh upstream access token. Safe to retry.
type CredentialIssuer interface {
	IssueCredential(ctx context.Context) (string, error)
}

// CredentialStore is a Redis-backed implementation of app.CredentialStore.
// Credentials live in a hash per session key so they survive restarts and can
// be shared by multiple instances pointed at the same Redis. The key expiry
// tracks the credential TTL; issuedAt is still checked on read because Redis
// expiry resolution is best-effort.
type CredentialStore struct {
	client *redis.Client
	issuer CredentialIssuer
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
}

func NewCredentialStore(client *redis.Client, issuer CredentialIssuer, ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		client: client,
		issuer: issuer,
		ttl:    ttl,
		clock:  time.Now,
	}
}

// NewCredentialStoreWithClock is test-only for deterministic expiry.
func NewCredentialStoreWithClock(client *redis.Client, issuer CredentialIssuer, ttl time.Duration, clock func() time.Time) *CredentialStore {
	store := NewCredentialStore(client, issuer, ttl)
	store.clock = clock
	return store
}

func (s *CredentialStore) GetOrRefresh(ctx context.Context, sessionKey string) (domain.SessionCredential, error) {
	now := s.clock()

	if credential, ok := s.load(ctx, sessionKey); ok && !credential.Expired(now, s.ttl) {
		return credential, nil
	}

	result, err, _ := s.sf.Do(sessionKey, func() (interface{}, error) {
		now := s.clock()
		// Re-check in case another goroutine refreshed while we waited.
		if credential, ok := s.load(ctx, sessionKey); ok && !credential.Expired(now, s.ttl) {
			return credential, nil
		}

		token, err := s.issuer.IssueCredential(ctx)
		if err != nil {
			// Nothing is written; the stale or absent slot stays as-is so the
			// next call retries.
			return domain.SessionCredential{}, err
		}

		credential := domain.SessionCredential{Token: token, IssuedAt: now}
		key := s.key(sessionKey)
		pipe := s.client.Pipeline()
		pipe.HSet(ctx, key, "token", credential.Token, "issuedAt", credential.IssuedAt.UTC().Format(time.RFC3339Nano))
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return domain.SessionCredential{}, err
		}
		return credential, nil
	})
	if err != nil {
		return domain.SessionCredential{}, err
	}
	return result.(domain.SessionCredential), nil
}

func (s *CredentialStore) Peek(ctx context.Context, sessionKey string) (domain.SessionCredential, error) {
	credential, ok := s.load(ctx, sessionKey)
	if !ok {
		return domain.SessionCredential{}, domain.ErrNoCredential
	}
	return credential, nil
}

// Remove drops the slot for a terminated session.
func (s *CredentialStore) Remove(ctx context.Context, sessionKey string) {
	_ = s.client.Del(ctx, s.key(sessionKey)).Err()
}

func (s *CredentialStore) load(ctx context.Context, sessionKey string) (domain.SessionCredential, bool) {
	fields, err := s.client.HGetAll(ctx, s.key(sessionKey)).Result()
	if err != nil || len(fields) == 0 {
		return domain.SessionCredential{}, false
	}
	token, ok := fields["token"]
	if !ok || token == "" {
		return domain.SessionCredential{}, false
	}
	issuedAt, err := time.Parse(time.RFC3339Nano, fields["issuedAt"])
	if err != nil {
		return domain.SessionCredential{}, false
	}
	return domain.SessionCredential{Token: token, IssuedAt: issuedAt}, true
}

func (s *CredentialStore) key(sessionKey string) string {
	return "trivia:credential:" + sessionKey
}

package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quadtrivia/internal/domain"
)

// CredentialIssuer obtains a fresh upstream access token. Safe to retry.
type CredentialIssuer interface {
	IssueCredential(ctx context.Context) (string, error)
}

// CredentialStore is the in-memory implementation of app.CredentialStore.
// Each session key owns one credential slot; refreshes for the same key are
// collapsed through singleflight so N concurrent cache misses cost one
// upstream issuance call.
type CredentialStore struct {
	issuer CredentialIssuer
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu          sync.RWMutex
	credentials map[string]domain.SessionCredential
}

func NewCredentialStore(issuer CredentialIssuer, ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		issuer:      issuer,
		ttl:         ttl,
		clock:       time.Now,
		credentials: make(map[string]domain.SessionCredential),
	}
}

// NewCredentialStoreWithClock is test-only for deterministic expiry.
func NewCredentialStoreWithClock(issuer CredentialIssuer, ttl time.Duration, clock func() time.Time) *CredentialStore {
	store := NewCredentialStore(issuer, ttl)
	store.clock = clock
	return store
}

func (s *CredentialStore) GetOrRefresh(ctx context.Context, sessionKey string) (domain.SessionCredential, error) {
	now := s.clock()

	s.mu.RLock()
	if credential, ok := s.credentials[sessionKey]; ok && !credential.Expired(now, s.ttl) {
		s.mu.RUnlock()
		return credential, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(sessionKey, func() (interface{}, error) {
		now := s.clock()
		s.mu.RLock()
		if credential, ok := s.credentials[sessionKey]; ok && !credential.Expired(now, s.ttl) {
			s.mu.RUnlock()
			return credential, nil
		}
		s.mu.RUnlock()

		token, err := s.issuer.IssueCredential(ctx)
		if err != nil {
			// Leave the previous state untouched so the next call retries.
			return domain.SessionCredential{}, err
		}

		credential := domain.SessionCredential{Token: token, IssuedAt: now}
		s.mu.Lock()
		s.credentials[sessionKey] = credential
		s.mu.Unlock()
		return credential, nil
	})
	if err != nil {
		return domain.SessionCredential{}, err
	}
	return result.(domain.SessionCredential), nil
}

func (s *CredentialStore) Peek(_ context.Context, sessionKey string) (domain.SessionCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[sessionKey]
	if !ok {
		return domain.SessionCredential{}, domain.ErrNoCredential
	}
	return credential, nil
}

// Remove drops the slot for a terminated session.
func (s *CredentialStore) Remove(_ context.Context, sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, sessionKey)
}

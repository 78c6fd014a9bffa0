package app

import (
	"context"
	"log"

	"quadtrivia/internal/commit"
	"quadtrivia/internal/domain"
)

// CredentialStore abstracts the per-session upstream credential slot
// (in-memory, Redis, etc).
type CredentialStore interface {
	// GetOrRefresh returns the cached credential when it is still fresh and
	// otherwise obtains a new one from the issuer. Concurrent calls for the
	// same session key collapse into a single issuance.
	GetOrRefresh(ctx context.Context, sessionKey string) (domain.SessionCredential, error)
	// Peek returns the cached credential without triggering issuance.
	Peek(ctx context.Context, sessionKey string) (domain.SessionCredential, error)
}

// QuestionFetcher loads raw questions from the bank. Zero category and empty
// difficulty mean "no filter".
type QuestionFetcher interface {
	FetchQuestions(ctx context.Context, credentialToken string, amount, category int, difficulty string) ([]domain.RawQuestion, error)
}

// CategorySource lists the bank's categories (normally behind a TTL cache).
type CategorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// TriviaService contains the trivia use cases: fetching committed question
// sets and validating submitted answers.
type TriviaService struct {
	credentials CredentialStore
	questions   QuestionFetcher
	categories  CategorySource
	assembler   *Assembler
	signer      *commit.Signer
}

func NewTriviaService(credentials CredentialStore, questions QuestionFetcher, categories CategorySource, signer *commit.Signer) *TriviaService {
	return &TriviaService{
		credentials: credentials,
		questions:   questions,
		categories:  categories,
		assembler:   NewAssembler(signer),
		signer:      signer,
	}
}

// FetchQuestions obtains a credential for the session, pulls raw questions
// and assembles the committed, shuffled presentation. Upstream failures fail
// soft to an empty slice: the caller-visible contract is "no questions right
// now", never a hard error. Logs carry no answers and no key material.
func (s *TriviaService) FetchQuestions(ctx context.Context, sessionKey string, amount, category int, difficulty string) []domain.PresentedQuestion {
	credential, err := s.credentials.GetOrRefresh(ctx, sessionKey)
	if err != nil {
		log.Printf("credential refresh failed: %v", err)
		return nil
	}

	raw, err := s.questions.FetchQuestions(ctx, credential.Token, amount, category, difficulty)
	if err != nil {
		log.Printf("question fetch failed: %v", err)
		return nil
	}

	presented := make([]domain.PresentedQuestion, 0, len(raw))
	for _, q := range raw {
		presented = append(presented, s.assembler.Assemble(q))
	}
	return presented
}

// VerifyAnswer recomputes the commitment for the submitted answer. Malformed
// input reads as a wrong answer; the caller never learns why.
func (s *TriviaService) VerifyAnswer(token, instant, answer string) bool {
	ok, err := s.signer.Verify(token, instant, answer)
	if err != nil {
		return false
	}
	return ok
}

// SessionCredentialToken exposes the session's upstream token for
// diagnostics and token passthrough.
func (s *TriviaService) SessionCredentialToken(ctx context.Context, sessionKey string) (string, error) {
	credential, err := s.credentials.GetOrRefresh(ctx, sessionKey)
	if err != nil {
		return "", err
	}
	return credential.Token, nil
}

// Categories returns the cached category list, failing soft to empty.
func (s *TriviaService) Categories(ctx context.Context) []domain.Category {
	categories, err := s.categories.Categories(ctx)
	if err != nil {
		log.Printf("category fetch failed: %v", err)
		return nil
	}
	return categories
}

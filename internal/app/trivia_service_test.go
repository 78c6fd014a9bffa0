package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quadtrivia/internal/app"
	"quadtrivia/internal/commit"
	"quadtrivia/internal/domain"
	"quadtrivia/internal/infra/memory"
)

func TestFetchQuestionsProducesCommittedSets(t *testing.T) {
	ctx := context.Background()
	signer, service, _ := newTestService(t, &stubFetcher{questions: sampleRawQuestions()}, &stubIssuer{token: "upstream-token"})

	questions := service.FetchQuestions(ctx, "session-a", 5, 9, "easy")
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.Commitment.Token == "" {
			t.Fatalf("question %d missing commitment token", i)
		}
		if len(q.Answers) != 1+len(sampleRawQuestions()[i].IncorrectAnswers) {
			t.Fatalf("question %d has %d answers, want %d", i, len(q.Answers), 1+len(sampleRawQuestions()[i].IncorrectAnswers))
		}
		ok, err := signer.Verify(q.Commitment.Token, q.Commitment.IssuedAt, sampleRawQuestions()[i].CorrectAnswer)
		if err != nil || !ok {
			t.Fatalf("question %d commitment does not verify: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestFetchQuestionsForwardsFiltersAndSentinels(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{questions: sampleRawQuestions()}
	_, service, _ := newTestService(t, fetcher, &stubIssuer{token: "upstream-token"})

	service.FetchQuestions(ctx, "session-a", 5, 9, "easy")
	if fetcher.lastAmount != 5 || fetcher.lastCategory != 9 || fetcher.lastDifficulty != "easy" {
		t.Fatalf("filters not forwarded: %+v", fetcher)
	}
	if fetcher.lastToken != "upstream-token" {
		t.Fatalf("expected upstream credential forwarded, got %q", fetcher.lastToken)
	}

	service.FetchQuestions(ctx, "session-a", 10, 0, "")
	if fetcher.lastCategory != 0 || fetcher.lastDifficulty != "" {
		t.Fatalf("expected sentinels passed through unchanged, got %+v", fetcher)
	}
}

func TestFetchQuestionsFailsSoftWhenIssuanceFails(t *testing.T) {
	ctx := context.Background()
	issuer := &stubIssuer{err: errors.New("token endpoint down")}
	_, service, store := newTestService(t, &stubFetcher{questions: sampleRawQuestions()}, issuer)

	questions := service.FetchQuestions(ctx, "session-a", 5, 0, "")
	if len(questions) != 0 {
		t.Fatalf("expected empty result, got %d questions", len(questions))
	}
	if _, err := store.Peek(ctx, "session-a"); err != domain.ErrNoCredential {
		t.Fatalf("expected no credential cached after failed issuance, got %v", err)
	}
}

func TestFetchQuestionsFailsSoftWhenFetchFails(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{err: domain.ErrUpstreamUnavailable}
	_, service, _ := newTestService(t, fetcher, &stubIssuer{token: "upstream-token"})

	questions := service.FetchQuestions(ctx, "session-a", 5, 0, "")
	if len(questions) != 0 {
		t.Fatalf("expected empty result, got %d questions", len(questions))
	}
}

func TestFetchQuestionsEmptyUpstreamIsNotAnError(t *testing.T) {
	ctx := context.Background()
	_, service, _ := newTestService(t, &stubFetcher{}, &stubIssuer{token: "upstream-token"})

	questions := service.FetchQuestions(ctx, "session-a", 5, 0, "")
	if len(questions) != 0 {
		t.Fatalf("expected empty result, got %d", len(questions))
	}
}

func TestVerifyAnswerRejectsForeignAnswer(t *testing.T) {
	signer, service, _ := newTestService(t, &stubFetcher{}, &stubIssuer{token: "t"})

	c := signer.Commit("London")
	if service.VerifyAnswer(c.Token, c.IssuedAt, "Paris") {
		t.Fatalf("expected commitment for London to reject Paris")
	}
	if !service.VerifyAnswer(c.Token, c.IssuedAt, "London") {
		t.Fatalf("expected commitment for London to accept London")
	}
}

func TestVerifyAnswerSwallowsMalformedInput(t *testing.T) {
	_, service, _ := newTestService(t, &stubFetcher{}, &stubIssuer{token: "t"})

	if service.VerifyAnswer("token", "not-an-instant", "Paris") {
		t.Fatalf("expected malformed instant to read as wrong answer")
	}
}

func TestSessionCredentialToken(t *testing.T) {
	ctx := context.Background()
	_, service, _ := newTestService(t, &stubFetcher{}, &stubIssuer{token: "upstream-token"})

	token, err := service.SessionCredentialToken(ctx, "session-a")
	if err != nil {
		t.Fatalf("session token: %v", err)
	}
	if token != "upstream-token" {
		t.Fatalf("expected upstream-token, got %q", token)
	}
}

func TestCategoriesFailSoft(t *testing.T) {
	ctx := context.Background()
	signer, err := commit.NewSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	store := memory.NewCredentialStore(&stubIssuer{token: "t"}, 3*time.Hour)
	service := app.NewTriviaService(store, &stubFetcher{}, &failingCategories{}, signer)

	if categories := service.Categories(ctx); len(categories) != 0 {
		t.Fatalf("expected empty categories on failure, got %v", categories)
	}
}

func newTestService(t *testing.T, fetcher *stubFetcher, issuer *stubIssuer) (*commit.Signer, *app.TriviaService, *memory.CredentialStore) {
	t.Helper()
	signer, err := commit.NewSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	store := memory.NewCredentialStore(issuer, 3*time.Hour)
	categories := memory.NewCategoryCache(memory.NewStaticCategoryLoader([]domain.Category{{ID: 9, Name: "General Knowledge"}}), time.Hour)
	return signer, app.NewTriviaService(store, fetcher, categories, signer), store
}

type stubIssuer struct {
	token string
	err   error
}

func (s *stubIssuer) IssueCredential(_ context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

type stubFetcher struct {
	questions []domain.RawQuestion
	err       error

	lastToken      string
	lastAmount     int
	lastCategory   int
	lastDifficulty string
}

func (s *stubFetcher) FetchQuestions(_ context.Context, token string, amount, category int, difficulty string) ([]domain.RawQuestion, error) {
	s.lastToken = token
	s.lastAmount = amount
	s.lastCategory = category
	s.lastDifficulty = difficulty
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

type failingCategories struct{}

func (failingCategories) Categories(_ context.Context) ([]domain.Category, error) {
	return nil, domain.ErrUpstreamUnavailable
}

func sampleRawQuestions() []domain.RawQuestion {
	return []domain.RawQuestion{
		{Type: "multiple", Difficulty: "easy", Category: "Geography", Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"London", "Berlin", "Madrid"}},
		{Type: "multiple", Difficulty: "easy", Category: "Geography", Question: "Capital of Italy?", CorrectAnswer: "Rome", IncorrectAnswers: []string{"Milan", "Naples", "Turin"}},
		{Type: "multiple", Difficulty: "easy", Category: "Science", Question: "Water formula?", CorrectAnswer: "H2O", IncorrectAnswers: []string{"CO2", "O2", "NaCl"}},
		{Type: "boolean", Difficulty: "easy", Category: "Science", Question: "The sun is a star.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
		{Type: "multiple", Difficulty: "easy", Category: "History", Question: "First US president?", CorrectAnswer: "George Washington", IncorrectAnswers: []string{"John Adams", "Thomas Jefferson"}},
	}
}

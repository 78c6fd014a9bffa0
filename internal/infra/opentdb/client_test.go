package opentdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quadtrivia/internal/domain"
)

func TestIssueCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_token.php" || r.URL.Query().Get("command") != "request" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		w.Write([]byte(`{"response_code":0,"response_message":"Token Generated.","token":"abc123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	token, err := client.IssueCredential(context.Background())
	if err != nil {
		t.Fatalf("issue credential: %v", err)
	}
	if token != "abc123" {
		t.Fatalf("expected abc123, got %q", token)
	}
}

func TestIssueCredentialNonZeroCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response_code":5,"response_message":"Rate Limit","token":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.IssueCredential(context.Background()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchQuestionsBuildsQuery(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		got = map[string]string{
			"amount":     query.Get("amount"),
			"token":      query.Get("token"),
			"category":   query.Get("category"),
			"difficulty": query.Get("difficulty"),
		}
		w.Write([]byte(`{"response_code":0,"results":[{"type":"multiple","difficulty":"easy","category":"Geography","question":"Capital of France?","correct_answer":"Paris","incorrect_answers":["London","Berlin","Madrid"]}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	questions, err := client.FetchQuestions(context.Background(), "abc123", 5, 9, "easy")
	if err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "Paris" || len(questions[0].IncorrectAnswers) != 3 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	want := map[string]string{"amount": "5", "token": "abc123", "category": "9", "difficulty": "easy"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("query %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestFetchQuestionsOmitsSentinelFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Has("category") || query.Has("difficulty") {
			t.Errorf("sentinel filters must not be forwarded: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"response_code":0,"results":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.FetchQuestions(context.Background(), "abc123", 10, 0, ""); err != nil {
		t.Fatalf("fetch questions: %v", err)
	}
}

func TestFetchQuestionsExhaustedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response_code":4,"results":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.FetchQuestions(context.Background(), "abc123", 10, 0, ""); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestLoadCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_category.php" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":22,"name":"Geography"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	categories, err := client.LoadCategories(context.Background())
	if err != nil {
		t.Fatalf("load categories: %v", err)
	}
	if len(categories) != 2 || categories[0].ID != 9 {
		t.Fatalf("unexpected categories: %+v", categories)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	if _, err := client.LoadCategories(context.Background()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

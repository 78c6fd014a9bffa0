package domain

import "time"

// RawQuestion is a question exactly as the upstream bank returns it: the
// correct answer is still distinguished from the distractors.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Commitment binds a correct answer to the process signing key at a point in
// time. The pair travels to the client and comes back on validation; nothing
// is kept server-side.
type Commitment struct {
	Token    string `json:"token"`
	IssuedAt string `json:"instant"`
}

// PresentedQuestion is the client-facing question: all answers shuffled into
// one list, correctness recoverable only through the commitment.
type PresentedQuestion struct {
	Type       string     `json:"type"`
	Difficulty string     `json:"difficulty"`
	Category   string     `json:"category"`
	Question   string     `json:"question"`
	Answers    []string   `json:"answers"`
	Commitment Commitment `json:"commitment"`
}

// SessionCredential is the upstream access token cached for one session.
type SessionCredential struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Expired reports whether the credential has outlived ttl at instant now.
func (c SessionCredential) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.IssuedAt) >= ttl
}

// Category is one entry of the upstream category list.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

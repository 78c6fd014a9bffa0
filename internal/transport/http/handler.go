package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"quadtrivia/internal/app"
	"quadtrivia/internal/domain"
)

const sessionCookie = "trivia_session"

// Handler exposes the trivia use cases over plain REST, mirroring the
// endpoints the frontend consumes.
type Handler struct {
	service *app.TriviaService
}

func NewHandler(service *app.TriviaService) *Handler {
	return &Handler{service: service}
}

// Register wires the trivia routes into mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/trivia/questions", h.GetQuestions)
	mux.HandleFunc("/trivia/validate", h.ValidateAnswer)
	mux.HandleFunc("/trivia/token", h.GetSessionToken)
	mux.HandleFunc("/trivia/categories", h.GetCategories)
}

type questionsResponse struct {
	Questions []domain.PresentedQuestion `json:"questions"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// GetQuestions serves a committed, shuffled question set for the session.
// amount defaults to 10; category 0 and empty difficulty mean "no filter".
func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)

	amount := intParam(r, "amount", 10)
	category := intParam(r, "category", 0)
	difficulty := r.URL.Query().Get("difficulty")

	questions := h.service.FetchQuestions(r.Context(), sessionKey, amount, category, difficulty)
	if questions == nil {
		questions = []domain.PresentedQuestion{}
	}
	writeJSON(w, questionsResponse{Questions: questions})
}

// ValidateAnswer recomputes the commitment for the submitted answer and
// reports a bare boolean. Wrong answers and malformed input look identical.
func (h *Handler) ValidateAnswer(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ok := h.service.VerifyAnswer(query.Get("token"), query.Get("instant"), query.Get("answer"))
	writeJSON(w, ok)
}

// GetSessionToken exposes the session's upstream credential for diagnostics.
func (h *Handler) GetSessionToken(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)
	token, err := h.service.SessionCredentialToken(r.Context(), sessionKey)
	if err != nil {
		log.Printf("session token fetch failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte(token))
}

// GetCategories lists the bank's categories from the TTL cache.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.Categories(r.Context())
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSON(w, categoriesResponse{TriviaCategories: categories})
}

// sessionKey reads the session cookie, minting one on first contact.
func (h *Handler) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
	})
	return key
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quadtrivia/internal/app"
	"quadtrivia/internal/domain"
)

// WSHandler runs an interactive play session: the client receives a committed
// question batch on connect and submits answers over the same connection.
type WSHandler struct {
	service  *app.TriviaService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TriviaService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Token   string `json:"token"`
	Instant string `json:"instant"`
	Answer  string `json:"answer"`
}

type questionsPayload struct {
	Amount     int    `json:"amount"`
	Category   int    `json:"category"`
	Difficulty string `json:"difficulty"`
}

type verdictPayload struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives the play loop. The session key
// comes from the query (so reconnects keep their upstream credential) or is
// minted fresh.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.URL.Query().Get("session")
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	amount := intParam(r, "amount", 10)
	category := intParam(r, "category", 0)
	difficulty := r.URL.Query().Get("difficulty")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	questions := h.service.FetchQuestions(r.Context(), sessionKey, amount, category, difficulty)
	send <- outboundMessage[any]{Type: "questions", Payload: questionsResponse{Questions: orEmpty(questions)}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			correct := h.service.VerifyAnswer(payload.Token, payload.Instant, payload.Answer)
			send <- outboundMessage[any]{Type: "verdict", Payload: verdictPayload{
				Answer:  payload.Answer,
				Correct: correct,
			}}
		case "questions":
			var payload questionsPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid questions payload"}}
				continue
			}
			if payload.Amount <= 0 {
				payload.Amount = 10
			}
			batch := h.service.FetchQuestions(r.Context(), sessionKey, payload.Amount, payload.Category, payload.Difficulty)
			send <- outboundMessage[any]{Type: "questions", Payload: questionsResponse{Questions: orEmpty(batch)}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

func orEmpty(questions []domain.PresentedQuestion) []domain.PresentedQuestion {
	if questions == nil {
		return []domain.PresentedQuestion{}
	}
	return questions
}

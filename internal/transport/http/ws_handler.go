package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"trivia-duel-service/internal/app"
	"trivia-duel-service/internal/domain"
	"trivia-duel-service/internal/identity"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

// WSHandler subscribes a player's connection to one room's event stream and
// routes game actions into the round engine.
type WSHandler struct {
	service  *app.RoomService
	users    *identity.Registry
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.RoomService, users *identity.Registry, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		users:   users,
		log:     log,
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
	Round   int      `json:"round"`
	Answer  string   `json:"answer"`
	Answers []string `json:"answers"`
}

type answerAck struct {
	Round       int  `json:"round"`
	ScoreEarned int  `json:"scoreEarned"`
	TotalScore  int  `json:"totalScore"`
	Duplicate   bool `json:"duplicate,omitempty"`
}

type roomDeletedPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pumps room events out while reading game
// actions in. Closing the connection counts as leaving the room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	roomID := r.URL.Query().Get("roomId")
	userID := r.URL.Query().Get("userId")
	if roomID == "" || userID == "" {
		http.Error(w, "missing roomId or userId", http.StatusBadRequest)
		return
	}
	if _, err := h.users.Lookup(userID); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	h.users.Touch(userID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(roomID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	// Disconnecting is how a player leaves; a vanished room is fine here.
	defer func() {
		_, _ = h.service.Leave(userID, roomID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				var msg outboundMessage[any]
				if event.Deleted {
					msg = outboundMessage[any]{Type: "roomDeleted", Payload: roomDeletedPayload{RoomID: roomID, Message: event.Reason}}
				} else {
					msg = outboundMessage[any]{Type: "roomUpdate", Payload: event.Room}
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
				if event.Deleted {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.users.Touch(userID)

		switch inbound.Type {
		case "startGame":
			if _, err := h.service.Start(userID, roomID); err != nil {
				if !queueOutbound(send, writerDone, errorMessage(err)) {
					break readLoop
				}
			}
		case "submitAnswer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !queueOutbound(send, writerDone, errorMessage(errors.New("invalid answer payload"))) {
					break readLoop
				}
				continue
			}
			submission := payload.Answers
			if len(submission) == 0 && payload.Answer != "" {
				submission = []string{payload.Answer}
			}
			delta, total, _, err := h.service.Submit(userID, roomID, payload.Round, submission)
			var reply outboundMessage[any]
			switch {
			case errors.Is(err, domain.ErrAlreadyAnswered):
				// Benign duplicate: acknowledge without a new delta.
				reply = outboundMessage[any]{Type: "answerAck", Payload: answerAck{Round: payload.Round, ScoreEarned: 0, TotalScore: total, Duplicate: true}}
			case err != nil:
				reply = errorMessage(err)
			default:
				reply = outboundMessage[any]{Type: "answerAck", Payload: answerAck{Round: payload.Round, ScoreEarned: delta, TotalScore: total}}
			}
			if !queueOutbound(send, writerDone, reply) {
				break readLoop
			}
		case "nextRound":
			if _, err := h.service.Advance(userID, roomID); err != nil {
				if !queueOutbound(send, writerDone, errorMessage(err)) {
					break readLoop
				}
			}
		case "leaveRoom":
			_, _ = h.service.Leave(userID, roomID)
			break readLoop
		default:
			if !queueOutbound(send, writerDone, errorMessage(errors.New("unsupported message type"))) {
				break readLoop
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// queueOutbound enqueues msg for the writer goroutine. Reports false once the
// writer has exited, so the read loop stops instead of blocking on a channel
// nothing drains.
func queueOutbound(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

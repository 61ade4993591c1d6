package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"trivia-duel-service/internal/app"
	"trivia-duel-service/internal/domain"
	"trivia-duel-service/internal/identity"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

// Identity headers carried by the client on every request.
const (
	headerUserID   = "x-user-id"
	headerUsername = "x-username"
)

// API exposes the request-style operations over HTTP. Push-style updates go
// over the websocket handler; a polling client simply calls GET room
// repeatedly instead.
type API struct {
	service *app.RoomService
	users   *identity.Registry
	log     zerolog.Logger
}

func NewAPI(service *app.RoomService, users *identity.Registry, log zerolog.Logger) *API {
	return &API{service: service, users: users, log: log}
}

// Register attaches all REST routes to the router.
func (a *API) Register(router *httprouter.Router) {
	router.POST("/api/auth/anonymous", a.authenticateAnonymous)
	router.POST("/api/user/update-username", a.updateUsername)
	router.POST("/api/rooms/create", a.createRoom)
	router.POST("/api/rooms/join/:roomId", a.joinRoom)
	router.POST("/api/rooms/leave/:roomId", a.leaveRoom)
	router.GET("/api/rooms/:roomId", a.getRoom)
	router.GET("/healthz", a.health)
}

type authRequest struct {
	Username string `json:"username"`
}

type renameRequest struct {
	NewUsername string `json:"newUsername"`
}

type createRoomRequest struct {
	Mode       domain.Mode       `json:"mode"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

type userResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type leaveResponse struct {
	RoomDeleted bool `json:"roomDeleted"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (a *API) authenticateAnonymous(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req authRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}

	user, err := a.users.Authenticate(r.Header.Get(headerUserID), req.Username)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{UserID: user.ID, Username: user.Username})
}

func (a *API) updateUsername(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := a.caller(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}

	user, err := a.service.Rename(userID, req.NewUsername)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{UserID: user.ID, Username: user.Username})
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := a.caller(w, r)
	if !ok {
		return
	}
	req := createRoomRequest{Mode: domain.ModeFreeResponse, Difficulty: domain.DifficultyEasy}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = domain.ModeFreeResponse
	}

	snap, err := a.service.Create(r.Context(), userID, req.Mode, req.Difficulty)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.log.Info().Str("room", snap.RoomID).Str("host", userID).Str("mode", string(snap.Mode)).Msg("room created")
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) joinRoom(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	userID, ok := a.caller(w, r)
	if !ok {
		return
	}
	snap, err := a.service.Join(r.Context(), userID, p.ByName("roomId"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) leaveRoom(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	userID, ok := a.caller(w, r)
	if !ok {
		return
	}
	deleted, err := a.service.Leave(userID, p.ByName("roomId"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaveResponse{RoomDeleted: deleted})
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := a.service.Get(p.ByName("roomId"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Write([]byte("ok"))
}

// caller validates the identity header against the registry and refreshes the
// user's idle timer.
func (a *API) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "missing " + headerUserID + " header"})
		return "", false
	}
	if _, err := a.users.Lookup(userID); err != nil {
		a.writeError(w, err)
		return "", false
	}
	a.users.Touch(userID)
	return userID, true
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInsufficientQuestions):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrNotHost),
		errors.Is(err, domain.ErrNotInRoom),
		errors.Is(err, domain.ErrInsufficientPlayers),
		errors.Is(err, domain.ErrStaleRound),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrRoundClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody tolerates empty bodies (fields keep their zero values) but
// rejects malformed JSON.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

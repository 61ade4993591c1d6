package domain

import "errors"

var (
	// ErrInvalidUsername is returned when a display name is shorter than 3 characters after trimming.
	ErrInvalidUsername = errors.New("username must be at least 3 characters long")
	// ErrUserNotFound is returned when a user id is unknown to the identity registry.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidMode indicates an unknown game mode.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrInvalidDifficulty indicates an unknown difficulty tier.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInsufficientQuestions indicates a pool is too small for the requested draw.
	ErrInsufficientQuestions = errors.New("not enough questions in pool")
	// ErrRoomNotFound is returned when a room code does not name a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a third player tries to join.
	ErrRoomFull = errors.New("room is full")
	// ErrInvalidState is returned when an operation does not apply to the room's current status.
	ErrInvalidState = errors.New("operation not allowed in current room state")
	// ErrNotInRoom is returned when the caller is not a player of the room.
	ErrNotInRoom = errors.New("player not in room")
	// ErrNotHost is returned when a non-host attempts a host-only transition.
	ErrNotHost = errors.New("only the host can do that")
	// ErrInsufficientPlayers is returned when the game is started with fewer than 2 players.
	ErrInsufficientPlayers = errors.New("need 2 players to start the game")
	// ErrStaleRound is returned when an answer targets a round other than the current one.
	ErrStaleRound = errors.New("answer is for a stale round")
	// ErrAlreadyAnswered is returned on a duplicate submission for the same round; callers should treat it as a no-op.
	ErrAlreadyAnswered = errors.New("already answered this round")
	// ErrRoundClosed is returned when an answer arrives after the round deadline.
	ErrRoundClosed = errors.New("round is closed")
)

package domain

import "time"

// Mode selects the answer/scoring variant a room plays.
type Mode string

const (
	ModeMultipleChoice Mode = "multiple-choice"
	ModeFreeResponse   Mode = "free-response"
)

// Valid reports whether the mode is one of the supported variants.
func (m Mode) Valid() bool {
	return m == ModeMultipleChoice || m == ModeFreeResponse
}

// RoundDuration is the answer window for a single round in this mode.
func (m Mode) RoundDuration() time.Duration {
	if m == ModeFreeResponse {
		return 15 * time.Second
	}
	return 60 * time.Second
}

// Difficulty selects which question pool a room draws from.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty names a known tier.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// User is an anonymous identity issued by the identity registry.
type User struct {
	ID       string
	Username string
	LastSeen time.Time
}

// Question is one prompt plus its answer key. Multiple-choice questions carry
// Options and a single correct Answer; free-response questions carry Accepted,
// the set of acceptable submissions.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Accepted []string `json:"accepted,omitempty"`
}

// PlayerSnapshot is the client-facing view of a player in a room.
type PlayerSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"hasAnsweredCurrentRound"`
}

// QuestionSnapshot is the client-facing view of the current question.
// The answer key is deliberately absent.
type QuestionSnapshot struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options,omitempty"`
}

// RoomSnapshot is the full room state pushed to subscribers on every change.
// RoundStartTime is unix milliseconds so clients can compare it against their
// own wall clock.
type RoomSnapshot struct {
	RoomID          string            `json:"roomId"`
	HostID          string            `json:"hostId"`
	Status          Status            `json:"status"`
	Mode            Mode              `json:"mode"`
	Difficulty      Difficulty        `json:"difficulty"`
	Players         []PlayerSnapshot  `json:"players"`
	CurrentRound    int               `json:"currentRound"`
	MaxRounds       int               `json:"maxRounds"`
	RoundStartTime  int64             `json:"roundStartTime,omitempty"`
	RoundDurationMs int64             `json:"roundDurationMs,omitempty"`
	CurrentQuestion *QuestionSnapshot `json:"currentQuestion,omitempty"`
	Winner          *PlayerSnapshot   `json:"winner,omitempty"`
	Tie             bool              `json:"tie,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

package chatModel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionDeleted SessionState = "deleted"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrInvalidSessionID = errors.New("invalid session id")
)

const MaxSessionIDLength = 128

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateSessionID accepts client-chosen session ids made of letters, digits,
// '-' and '_' up to MaxSessionIDLength.
func ValidateSessionID(sessionId string) error {
	if len(sessionId) == 0 || len(sessionId) > MaxSessionIDLength || !sessionIDPattern.MatchString(sessionId) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionId)
	}
	return nil
}

type ChatMessage struct {
	UserId    string    `json:"userId"`
	SessionId string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatSession struct {
	UserId    string        `json:"userId"`
	SessionId string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	State     SessionState  `json:"state"`
}

func (s ChatSession) IsActive() bool {
	return s.State != SessionDeleted
}

// TranscriptStore persists chat sessions. Sessions are never hard-deleted.
type TranscriptStore interface {
	// AppendMessages creates the session on first use and appends msgs in order
	// as one unit.
	AppendMessages(ctx context.Context, userId string, sessionId string, msgs ...ChatMessage) error
	GetSession(ctx context.Context, userId string, sessionId string) (ChatSession, error)
	ListSessions(ctx context.Context, userId string) ([]ChatSession, error)
	SoftDeleteSession(ctx context.Context, userId string, sessionId string) error
	// AllSessions includes deleted sessions; admin reporting only.
	AllSessions(ctx context.Context, limit int) ([]ChatSession, error)
}

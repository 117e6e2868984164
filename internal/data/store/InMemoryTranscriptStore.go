package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/akolanti/DocAssist/internal/domain/chatModel"
)

type InMemoryTranscriptStore struct {
	chatLock *sync.RWMutex
	sessions map[string]*chatModel.ChatSession
}

var _ chatModel.TranscriptStore = (*InMemoryTranscriptStore)(nil)

func InitInMemoryTranscriptStore() *InMemoryTranscriptStore {
	return &InMemoryTranscriptStore{
		chatLock: new(sync.RWMutex),
		sessions: make(map[string]*chatModel.ChatSession),
	}
}

func (store *InMemoryTranscriptStore) AppendMessages(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	store.chatLock.Lock()
	defer store.chatLock.Unlock()

	now := time.Now().UTC()
	key := sessionKey(userId, sessionId)
	session, ok := store.sessions[key]
	if !ok {
		session = &chatModel.ChatSession{
			UserId:    userId,
			SessionId: sessionId,
			CreatedAt: now,
			State:     chatModel.SessionActive,
		}
		store.sessions[key] = session
	}
	if !session.IsActive() {
		return chatModel.ErrSessionNotFound
	}
	session.Messages = append(session.Messages, msgs...)
	session.UpdatedAt = now
	return nil
}

func (store *InMemoryTranscriptStore) GetSession(ctx context.Context, userId string, sessionId string) (chatModel.ChatSession, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	session, ok := store.sessions[sessionKey(userId, sessionId)]
	if !ok || !session.IsActive() {
		return chatModel.ChatSession{}, chatModel.ErrSessionNotFound
	}
	return copySession(session, true), nil
}

func (store *InMemoryTranscriptStore) ListSessions(ctx context.Context, userId string) ([]chatModel.ChatSession, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	var out []chatModel.ChatSession
	for _, session := range store.sessions {
		if session.UserId == userId && session.IsActive() {
			out = append(out, copySession(session, false))
		}
	}
	sortByUpdate(out)
	return out, nil
}

func (store *InMemoryTranscriptStore) SoftDeleteSession(ctx context.Context, userId string, sessionId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	session, ok := store.sessions[sessionKey(userId, sessionId)]
	if !ok || !session.IsActive() {
		return chatModel.ErrSessionNotFound
	}
	session.State = chatModel.SessionDeleted
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func (store *InMemoryTranscriptStore) AllSessions(ctx context.Context, limit int) ([]chatModel.ChatSession, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	out := make([]chatModel.ChatSession, 0, len(store.sessions))
	for _, session := range store.sessions {
		out = append(out, copySession(session, true))
	}
	sortByUpdate(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copySession(s *chatModel.ChatSession, withMessages bool) chatModel.ChatSession {
	c := *s
	c.Messages = []chatModel.ChatMessage{}
	if withMessages {
		c.Messages = append(c.Messages, s.Messages...)
	}
	return c
}

func sortByUpdate(sessions []chatModel.ChatSession) {
	slices.SortStableFunc(sessions, func(a, b chatModel.ChatSession) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}

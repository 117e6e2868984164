package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/data/redisStore"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

// RedisTranscriptStore layout:
//
//	session:<len>:<user>:<len>:<session>           hash  userId sessionId createdAt updatedAt state
//	session:<len>:<user>:<len>:<session>:messages  list  json ChatMessage, append order
//	sessions:<user>                                zset  sessionId by last update
//	admin:sessions                                 zset  session hash key by last update
type RedisTranscriptStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
	now    func() time.Time
}

var _ chatModel.TranscriptStore = (*RedisTranscriptStore)(nil)

const allSessionsKey = "admin:sessions"

func GetRedisTranscriptStore(ctx context.Context, settings *config.Settings) (*RedisTranscriptStore, error) {
	s, err := redisStore.GetRedisStore(ctx, settings, config.RedisTranscriptStore)
	if err != nil {
		return nil, err
	}
	return NewRedisTranscriptStore(s), nil
}

func NewRedisTranscriptStore(s *redisStore.Store) *RedisTranscriptStore {
	return &RedisTranscriptStore{
		store:  s,
		logger: logger_i.NewLogger("TranscriptStore"),
		now:    time.Now,
	}
}

// sessionKey length-prefixes both ids so no (user, session) pair can spell
// another pair's hash key or messages key.
func sessionKey(userId string, sessionId string) string {
	return "session:" + strconv.Itoa(len(userId)) + ":" + userId + ":" + strconv.Itoa(len(sessionId)) + ":" + sessionId
}

const messagesSuffix = ":messages"

func messagesKey(userId string, sessionId string) string {
	return sessionKey(userId, sessionId) + messagesSuffix
}

func userSessionsKey(userId string) string {
	return "sessions:" + userId
}

func (s *RedisTranscriptStore) AppendMessages(ctx context.Context, userId string, sessionId string, msgs ...chatModel.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	log := s.logger.FromContext(ctx).With("sessionId", sessionId)
	meta := sessionKey(userId, sessionId)

	state, err := s.store.HashGet(ctx, meta, "state")
	if err != nil && !s.store.IsNil(err) {
		return err
	}
	if chatModel.SessionState(state) == chatModel.SessionDeleted {
		return chatModel.ErrSessionNotFound
	}

	payloads := make([]interface{}, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal chat message: %w", err)
		}
		payloads[i] = data
	}

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	score := float64(now.UnixMilli())
	err = s.store.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, meta, "userId", userId)
		pipe.HSetNX(ctx, meta, "sessionId", sessionId)
		pipe.HSetNX(ctx, meta, "createdAt", stamp)
		pipe.HSetNX(ctx, meta, "state", string(chatModel.SessionActive))
		pipe.HSet(ctx, meta, "updatedAt", stamp)
		pipe.RPush(ctx, messagesKey(userId, sessionId), payloads...)
		pipe.ZAdd(ctx, userSessionsKey(userId), redis.Z{Score: score, Member: sessionId})
		pipe.ZAdd(ctx, allSessionsKey, redis.Z{Score: score, Member: meta})
		return nil
	})
	if err != nil {
		log.Error("failed to append messages", "error", err)
		return err
	}
	log.Debug("appended messages", "count", len(msgs))
	return nil
}

func (s *RedisTranscriptStore) GetSession(ctx context.Context, userId string, sessionId string) (chatModel.ChatSession, error) {
	session, err := s.loadSession(ctx, sessionKey(userId, sessionId), true)
	if err != nil {
		return chatModel.ChatSession{}, err
	}
	if !session.IsActive() {
		return chatModel.ChatSession{}, chatModel.ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns active sessions, most recently updated first, without
// their messages.
func (s *RedisTranscriptStore) ListSessions(ctx context.Context, userId string) ([]chatModel.ChatSession, error) {
	ids, err := s.store.SortedMembersDesc(ctx, userSessionsKey(userId), 0)
	if err != nil {
		return nil, err
	}
	sessions := make([]chatModel.ChatSession, 0, len(ids))
	for _, id := range ids {
		session, err := s.loadSession(ctx, sessionKey(userId, id), false)
		if err != nil {
			s.logger.FromContext(ctx).Warn("skipping unreadable session", "sessionId", id, "error", err)
			continue
		}
		if session.IsActive() {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (s *RedisTranscriptStore) SoftDeleteSession(ctx context.Context, userId string, sessionId string) error {
	meta := sessionKey(userId, sessionId)
	state, err := s.store.HashGet(ctx, meta, "state")
	if s.store.IsNil(err) || chatModel.SessionState(state) == chatModel.SessionDeleted {
		return chatModel.ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	return s.store.HashSet(ctx, meta,
		"state", string(chatModel.SessionDeleted),
		"updatedAt", s.now().UTC().Format(time.RFC3339Nano))
}

func (s *RedisTranscriptStore) AllSessions(ctx context.Context, limit int) ([]chatModel.ChatSession, error) {
	keys, err := s.store.SortedMembersDesc(ctx, allSessionsKey, int64(limit))
	if err != nil {
		return nil, err
	}
	sessions := make([]chatModel.ChatSession, 0, len(keys))
	for _, key := range keys {
		session, err := s.loadSession(ctx, key, true)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *RedisTranscriptStore) loadSession(ctx context.Context, meta string, withMessages bool) (chatModel.ChatSession, error) {
	fields, err := s.store.HashGetAll(ctx, meta)
	if err != nil {
		return chatModel.ChatSession{}, err
	}
	if len(fields) == 0 {
		return chatModel.ChatSession{}, chatModel.ErrSessionNotFound
	}

	session := chatModel.ChatSession{
		UserId:    fields["userId"],
		SessionId: fields["sessionId"],
		State:     chatModel.SessionState(fields["state"]),
		Messages:  []chatModel.ChatMessage{},
	}
	session.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["createdAt"])
	session.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updatedAt"])
	if !withMessages {
		return session, nil
	}

	raw, err := s.store.ListGetAll(ctx, meta+messagesSuffix)
	if err != nil {
		return chatModel.ChatSession{}, err
	}
	for _, r := range raw {
		var m chatModel.ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			s.logger.FromContext(ctx).Warn("dropping unreadable chat message", "session", meta, "error", err)
			continue
		}
		session.Messages = append(session.Messages, m)
	}
	return session, nil
}

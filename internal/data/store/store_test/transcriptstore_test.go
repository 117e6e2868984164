package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/DocAssist/internal/data/store"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
)

func transcriptStores(t *testing.T) map[string]chatModel.TranscriptStore {
	_, internalStore := newRedis(t)
	return map[string]chatModel.TranscriptStore{
		"redis":    store.NewRedisTranscriptStore(internalStore),
		"inMemory": store.InitInMemoryTranscriptStore(),
	}
}

func pair(user string, session string, q string, a string) []chatModel.ChatMessage {
	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	return []chatModel.ChatMessage{
		{UserId: user, SessionId: session, Role: chatModel.RoleUser, Message: q, Timestamp: at},
		{UserId: user, SessionId: session, Role: chatModel.RoleAssistant, Message: a, Timestamp: at.Add(time.Second)},
	}
}

func TestTranscriptStore_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	for name, ts := range transcriptStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := ts.AppendMessages(ctx, "u1", "s1", pair("u1", "s1", "first question", "first answer")...); err != nil {
				t.Fatal(err)
			}
			if err := ts.AppendMessages(ctx, "u1", "s1", pair("u1", "s1", "second question", "second answer")...); err != nil {
				t.Fatal(err)
			}

			session, err := ts.GetSession(ctx, "u1", "s1")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"first question", "first answer", "second question", "second answer"}
			if len(session.Messages) != len(want) {
				t.Fatalf("messages = %d; want %d", len(session.Messages), len(want))
			}
			for i, m := range session.Messages {
				if m.Message != want[i] {
					t.Errorf("message %d = %q; want %q", i, m.Message, want[i])
				}
			}
			if session.State != chatModel.SessionActive || session.CreatedAt.IsZero() {
				t.Errorf("unexpected session meta %+v", session)
			}

			if _, err := ts.GetSession(ctx, "u2", "s1"); !errors.Is(err, chatModel.ErrSessionNotFound) {
				t.Errorf("other user should not see session, got %v", err)
			}
		})
	}
}

func TestTranscriptStore_ColonsDoNotCrossUsers(t *testing.T) {
	ctx := context.Background()
	for name, ts := range transcriptStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := ts.AppendMessages(ctx, "alice:x", "secret", pair("alice:x", "secret", "alice private q", "alice private a")...); err != nil {
				t.Fatal(err)
			}

			if _, err := ts.GetSession(ctx, "alice", "x:secret"); !errors.Is(err, chatModel.ErrSessionNotFound) {
				t.Errorf("alice read alice:x's transcript, err = %v", err)
			}

			// the session id spells the other session's message list key
			if err := ts.AppendMessages(ctx, "alice:x", "secret:messages", pair("alice:x", "secret:messages", "q", "a")...); err != nil {
				t.Fatal(err)
			}
			session, err := ts.GetSession(ctx, "alice:x", "secret")
			if err != nil {
				t.Fatal(err)
			}
			if len(session.Messages) != 2 || session.Messages[0].Message != "alice private q" {
				t.Errorf("unexpected messages %+v", session.Messages)
			}
		})
	}
}

func TestTranscriptStore_SoftDelete(t *testing.T) {
	ctx := context.Background()
	for name, ts := range transcriptStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = ts.AppendMessages(ctx, "u1", "keep", pair("u1", "keep", "q", "a")...)
			_ = ts.AppendMessages(ctx, "u1", "drop", pair("u1", "drop", "q", "a")...)

			if err := ts.SoftDeleteSession(ctx, "u1", "drop"); err != nil {
				t.Fatal(err)
			}

			sessions, err := ts.ListSessions(ctx, "u1")
			if err != nil {
				t.Fatal(err)
			}
			if len(sessions) != 1 || sessions[0].SessionId != "keep" {
				t.Errorf("listing should hide deleted sessions: %+v", sessions)
			}
			if _, err := ts.GetSession(ctx, "u1", "drop"); !errors.Is(err, chatModel.ErrSessionNotFound) {
				t.Errorf("deleted session readable: %v", err)
			}
			if err := ts.AppendMessages(ctx, "u1", "drop", pair("u1", "drop", "q", "a")...); !errors.Is(err, chatModel.ErrSessionNotFound) {
				t.Errorf("append to deleted session should fail, got %v", err)
			}

			all, err := ts.AllSessions(ctx, 0)
			if err != nil {
				t.Fatal(err)
			}
			states := map[string]chatModel.SessionState{}
			for _, s := range all {
				states[s.SessionId] = s.State
			}
			if states["drop"] != chatModel.SessionDeleted || states["keep"] != chatModel.SessionActive {
				t.Errorf("admin view should keep deleted sessions: %v", states)
			}
			if err := ts.SoftDeleteSession(ctx, "u1", "missing"); !errors.Is(err, chatModel.ErrSessionNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestTranscriptStore_ConcurrentPairsStayTogether(t *testing.T) {
	ctx := context.Background()
	for name, ts := range transcriptStores(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 20
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					q := fmt.Sprintf("q%d", i)
					_ = ts.AppendMessages(ctx, "u1", "s1", pair("u1", "s1", q, "a-"+q)...)
				}(i)
			}
			wg.Wait()

			session, err := ts.GetSession(ctx, "u1", "s1")
			if err != nil {
				t.Fatal(err)
			}
			if len(session.Messages) != 2*writers {
				t.Fatalf("messages = %d; want %d", len(session.Messages), 2*writers)
			}
			for i := 0; i < len(session.Messages); i += 2 {
				q, a := session.Messages[i], session.Messages[i+1]
				if q.Role != chatModel.RoleUser || a.Message != "a-"+q.Message {
					t.Errorf("pair split at %d: %q / %q", i, q.Message, a.Message)
				}
			}
		})
	}
}

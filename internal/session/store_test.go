package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/sqlc"
)

type mockQuerier struct {
	created    *sqlc.CreateSessionParams
	getRow     sqlc.Session
	getErr     error
	listRows   []sqlc.Session
	deleteRows int64
	touched    bool
	maxSeq     int32
	added      []sqlc.AddSessionMessageParams
	messages   []sqlc.SessionMessage
}

func (m *mockQuerier) CreateSession(_ context.Context, arg sqlc.CreateSessionParams) (sqlc.Session, error) {
	m.created = &arg
	id := uuid.New()
	return sqlc.Session{ID: pgtype.UUID{Bytes: id, Valid: true}, Title: arg.Title, ModelName: arg.ModelName, Game: arg.Game}, nil
}

func (m *mockQuerier) GetSession(context.Context, pgtype.UUID) (sqlc.Session, error) {
	return m.getRow, m.getErr
}

func (m *mockQuerier) ListSessions(context.Context, sqlc.ListSessionsParams) ([]sqlc.Session, error) {
	return m.listRows, nil
}

func (m *mockQuerier) DeleteSession(context.Context, pgtype.UUID) (int64, error) {
	return m.deleteRows, nil
}

func (m *mockQuerier) TouchSession(context.Context, pgtype.UUID) error {
	m.touched = true
	return nil
}

func (m *mockQuerier) AddSessionMessage(_ context.Context, arg sqlc.AddSessionMessageParams) error {
	m.added = append(m.added, arg)
	return nil
}

func (m *mockQuerier) GetSessionMessages(context.Context, sqlc.GetSessionMessagesParams) ([]sqlc.SessionMessage, error) {
	return m.messages, nil
}

func (m *mockQuerier) MaxSequenceNumber(context.Context, pgtype.UUID) (int32, error) {
	return m.maxSeq, nil
}

func TestCreate(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, log.NewNop())

	created, err := store.Create(context.Background(), "Margit help", "gemini-2.5-flash-lite", "elden_ring")
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	if created.Title != "Margit help" || created.Game != "elden_ring" {
		t.Errorf("created = %+v", created)
	}
	if q.created.Title == nil || *q.created.Title != "Margit help" {
		t.Errorf("stored title = %v", q.created.Title)
	}
}

func TestCreate_EmptyFieldsStoredAsNull(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, log.NewNop())

	if _, err := store.Create(context.Background(), "", "", ""); err != nil {
		t.Fatal(err)
	}
	if q.created.Title != nil || q.created.ModelName != nil || q.created.Game != nil {
		t.Errorf("empty fields not null: %+v", q.created)
	}
}

func TestGet_NotFound(t *testing.T) {
	q := &mockQuerier{getErr: pgx.ErrNoRows}
	store := New(q, log.NewNop())

	_, err := store.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	q := &mockQuerier{deleteRows: 0}
	store := New(q, log.NewNop())

	if err := store.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddMessages(t *testing.T) {
	q := &mockQuerier{maxSeq: 4}
	store := New(q, log.NewNop())

	err := store.AddMessages(context.Background(), uuid.New(), []Message{
		{Role: RoleUser, Content: "how do I parry margit"},
		{Role: RoleAssistant, Content: "use a medium shield and watch the staff"},
	})
	if err != nil {
		t.Fatalf("AddMessages(): %v", err)
	}

	if len(q.added) != 2 {
		t.Fatalf("added %d messages", len(q.added))
	}
	if q.added[0].SequenceNumber != 5 || q.added[1].SequenceNumber != 6 {
		t.Errorf("sequence numbers = %d, %d, want 5, 6",
			q.added[0].SequenceNumber, q.added[1].SequenceNumber)
	}
	if !q.touched {
		t.Error("session updated_at not touched")
	}
}

func TestAddMessages_InvalidRole(t *testing.T) {
	store := New(&mockQuerier{}, log.NewNop())

	err := store.AddMessages(context.Background(), uuid.New(), []Message{
		{Role: "wizard", Content: "hi"},
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("error = %v, want ErrInvalidRole", err)
	}
}

func TestAddMessages_Empty(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, log.NewNop())

	if err := store.AddMessages(context.Background(), uuid.New(), nil); err != nil {
		t.Fatal(err)
	}
	if q.touched {
		t.Error("empty batch should not touch the session")
	}
}

func TestHistory(t *testing.T) {
	// The query returns rows newest-first; History restores chronological order.
	q := &mockQuerier{messages: []sqlc.SessionMessage{
		{Role: RoleAssistant, Content: "second", SequenceNumber: 2},
		{Role: RoleUser, Content: "first", SequenceNumber: 1},
	}}
	store := New(q, log.NewNop())

	history, err := store.History(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("History(): %v", err)
	}
	if len(history) != 2 || history[0].Content != "first" || history[1].Content != "second" {
		t.Errorf("history = %+v", history)
	}
}

func TestHistory_KeepsRecentTurns(t *testing.T) {
	// With a limit of 2 on a 4-message session the database keeps the newest
	// two rows. History must surface them oldest-first.
	q := &mockQuerier{messages: []sqlc.SessionMessage{
		{Role: RoleAssistant, Content: "fourth", SequenceNumber: 4},
		{Role: RoleUser, Content: "third", SequenceNumber: 3},
	}}
	store := New(q, log.NewNop())

	history, err := store.History(context.Background(), uuid.New(), 2)
	if err != nil {
		t.Fatalf("History(): %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d messages, want 2", len(history))
	}
	if history[0].Content != "third" || history[1].Content != "fourth" {
		t.Errorf("history = %+v, want [third fourth]", history)
	}
}

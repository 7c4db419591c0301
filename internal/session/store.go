package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/sqlc"
)

const defaultMessageLimit = 200

var (
	ErrNotFound    = errors.New("session: not found")
	ErrInvalidRole = errors.New("session: invalid message role")
)

// Querier is the subset of database queries the store needs. Defined
// here so tests can substitute a mock.
type Querier interface {
	CreateSession(ctx context.Context, arg sqlc.CreateSessionParams) (sqlc.Session, error)
	GetSession(ctx context.Context, id pgtype.UUID) (sqlc.Session, error)
	ListSessions(ctx context.Context, arg sqlc.ListSessionsParams) ([]sqlc.Session, error)
	DeleteSession(ctx context.Context, id pgtype.UUID) (int64, error)
	TouchSession(ctx context.Context, id pgtype.UUID) error
	AddSessionMessage(ctx context.Context, arg sqlc.AddSessionMessageParams) error
	GetSessionMessages(ctx context.Context, arg sqlc.GetSessionMessagesParams) ([]sqlc.SessionMessage, error)
	MaxSequenceNumber(ctx context.Context, sessionID pgtype.UUID) (int32, error)
}

// Store manages session persistence. Safe for concurrent use.
type Store struct {
	queries Querier
	logger  log.Logger
}

func New(querier Querier, logger log.Logger) *Store {
	return &Store{queries: querier, logger: logger}
}

// Create starts a new session. Empty title, modelName and game are
// stored as NULL.
func (s *Store) Create(ctx context.Context, title, modelName, game string) (*Session, error) {
	row, err := s.queries.CreateSession(ctx, sqlc.CreateSessionParams{
		Title:     optional(title),
		ModelName: optional(modelName),
		Game:      optional(game),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	created := fromRow(row)
	s.logger.Debug("session created", "id", created.ID, "game", created.Game)
	return created, nil
}

// Get retrieves a session by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	row, err := s.queries.GetSession(ctx, toPgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return fromRow(row), nil
}

// List returns sessions ordered by most recent activity.
func (s *Store) List(ctx context.Context, limit, offset int32) ([]*Session, error) {
	rows, err := s.queries.ListSessions(ctx, sqlc.ListSessionsParams{
		ResultLimit:  limit,
		ResultOffset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, fromRow(row))
	}
	return sessions, nil
}

// Delete removes a session and, by cascade, its messages.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.queries.DeleteSession(ctx, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Debug("session deleted", "id", id)
	return nil
}

// AddMessages appends messages to a session with sequential sequence
// numbers and bumps the session's updated_at.
func (s *Store) AddMessages(ctx context.Context, id uuid.UUID, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	for i, msg := range messages {
		if !ValidRole(msg.Role) {
			return fmt.Errorf("%w: message %d role %q", ErrInvalidRole, i, msg.Role)
		}
	}

	pgID := toPgUUID(id)
	maxSeq, err := s.queries.MaxSequenceNumber(ctx, pgID)
	if err != nil {
		return fmt.Errorf("read sequence number: %w", err)
	}

	for i, msg := range messages {
		if err := s.queries.AddSessionMessage(ctx, sqlc.AddSessionMessageParams{
			SessionID:      pgID,
			Role:           msg.Role,
			Content:        msg.Content,
			SequenceNumber: maxSeq + int32(i) + 1,
		}); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if err := s.queries.TouchSession(ctx, pgID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	s.logger.Debug("messages added", "session_id", id, "count", len(messages))
	return nil
}

// History returns a session's most recent messages in conversation order.
// The query fetches newest-first so the limit keeps recent turns; the rows
// are reversed here to restore chronological order.
func (s *Store) History(ctx context.Context, id uuid.UUID, limit int32) ([]Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	rows, err := s.queries.GetSessionMessages(ctx, sqlc.GetSessionMessagesParams{
		SessionID:   toPgUUID(id),
		ResultLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get messages for %s: %w", id, err)
	}

	messages := make([]Message, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = Message{Role: row.Role, Content: row.Content}
	}
	return messages, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func fromRow(row sqlc.Session) *Session {
	s := &Session{
		ID:        uuid.UUID(row.ID.Bytes),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.Title != nil {
		s.Title = *row.Title
	}
	if row.ModelName != nil {
		s.ModelName = *row.ModelName
	}
	if row.Game != nil {
		s.Game = *row.Game
	}
	return s
}

//go:build integration
// +build integration

// Integration tests for the database layer. They start a disposable
// PostgreSQL container with the pgvector extension, run the embedded
// migrations, and exercise the stores against the real schema.
//
// Requirements: a running Docker daemon. Run with:
//
//	go test -tags integration ./internal/database/
package database_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lakitu0/lakitu/db"
	"github.com/lakitu0/lakitu/internal/database"
	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
	"github.com/lakitu0/lakitu/internal/session"
	"github.com/lakitu0/lakitu/internal/sqlc"
)

// setupTestDB starts a pgvector-enabled PostgreSQL container, runs the
// embedded migrations against it, and returns a ready connection pool.
// Cleanup is automatic via t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("lakitu_test"),
		postgres.WithUsername("lakitu_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	if err := db.Migrate(connStr); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("creating pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

func TestMigrations_SchemaComplete(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"sessions", "session_messages", "knowledge_documents", "screenshots"} {
		var exists bool
		err := pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)",
			table).Scan(&exists)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s missing after migration", table)
		}
	}

	var hasVector bool
	err := pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT FROM pg_extension WHERE extname = 'vector')").Scan(&hasVector)
	if err != nil {
		t.Fatalf("checking pgvector extension: %v", err)
	}
	if !hasVector {
		t.Error("pgvector extension not installed")
	}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	store := session.New(sqlc.New(pool), log.NewNop())

	sess, err := store.Create(ctx, "Malenia strategies", "gemini-2.5-flash-lite", "elden_ring")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if sess.Game != "elden_ring" {
		t.Errorf("Game = %q, want elden_ring", sess.Game)
	}

	err = store.AddMessages(ctx, sess.ID, []session.Message{
		{Role: session.RoleUser, Content: "How do I dodge Waterfowl Dance?"},
		{Role: session.RoleAssistant, Content: "Run away from the first flurry, then circle left."},
	})
	if err != nil {
		t.Fatalf("AddMessages() error: %v", err)
	}

	history, err := store.History(ctx, sess.ID, 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Role != session.RoleUser {
		t.Errorf("first message role = %q, want user", history[0].Role)
	}

	sessions, err := store.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("len(sessions) = %d, want 1", len(sessions))
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); err == nil {
		t.Error("Get() after Delete() should fail")
	}
}

func TestScreenshotStore_EncryptedRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	cipher, err := screenshot.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher() error: %v", err)
	}
	store := screenshot.NewStore(sqlc.New(pool), cipher, log.NewNop())

	image := []byte("\x89PNG fake image payload for round trip")
	capturedAt := time.Now().UTC().Truncate(time.Second)

	id, err := store.Save(ctx, image, capturedAt, "eldenring.exe", "ELDEN RING")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Ciphertext at rest must not contain the plaintext.
	var stored []byte
	err = pool.QueryRow(ctx, "SELECT encrypted_data FROM screenshots WHERE id = $1", id).Scan(&stored)
	if err != nil {
		t.Fatalf("reading raw row: %v", err)
	}
	if bytes.Contains(stored, image) {
		t.Error("stored image data contains plaintext")
	}

	meta, decrypted, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(decrypted, image) {
		t.Error("decrypted image differs from original")
	}
	if meta.Application != "eldenring.exe" {
		t.Errorf("Application = %q, want eldenring.exe", meta.Application)
	}

	recent, err := store.Recent(ctx, screenshot.Filter{Application: "eldenring.exe", Limit: 10})
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("len(recent) = %d, want 1", len(recent))
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

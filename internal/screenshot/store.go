package screenshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/sqlc"
)

const defaultRecentLimit = 20

var ErrNotFound = errors.New("screenshot: not found")

// Querier is the subset of database queries the store needs.
type Querier interface {
	InsertScreenshot(ctx context.Context, arg sqlc.InsertScreenshotParams) (int64, error)
	GetScreenshot(ctx context.Context, id int64) (sqlc.GetScreenshotRow, error)
	RecentScreenshots(ctx context.Context, arg sqlc.RecentScreenshotsParams) ([]sqlc.RecentScreenshotsRow, error)
	DeleteScreenshot(ctx context.Context, id int64) (int64, error)
	CountScreenshots(ctx context.Context) (int64, error)
	ScreenshotApplicationCounts(ctx context.Context) ([]sqlc.ScreenshotApplicationCountsRow, error)
	ScreenshotDateRange(ctx context.Context) (sqlc.ScreenshotDateRangeRow, error)
}

// Metadata describes a stored screenshot without its image data.
type Metadata struct {
	ID          int64     `json:"id"`
	CapturedAt  time.Time `json:"captured_at"`
	Application string    `json:"application"`
	WindowTitle string    `json:"window_title"`
	FileHash    string    `json:"file_hash"`
}

// Filter narrows Recent queries. Zero values are ignored.
type Filter struct {
	Application string
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Stats summarizes the screenshot archive.
type Stats struct {
	Total         int64            `json:"total"`
	ByApplication map[string]int64 `json:"by_application"`
	Oldest        *time.Time       `json:"oldest,omitempty"`
	Newest        *time.Time       `json:"newest,omitempty"`
}

// Store persists encrypted screenshots.
type Store struct {
	queries Querier
	cipher  *Cipher
	logger  log.Logger
}

func NewStore(querier Querier, cipher *Cipher, logger log.Logger) *Store {
	return &Store{queries: querier, cipher: cipher, logger: logger}
}

// Save encrypts and stores an image, returning its id. The stored hash
// is taken over the plaintext so duplicates stay detectable after
// encryption.
func (s *Store) Save(ctx context.Context, image []byte, capturedAt time.Time, application, windowTitle string) (int64, error) {
	if len(image) == 0 {
		return 0, errors.New("screenshot: empty image")
	}

	sum := sha256.Sum256(image)
	encrypted, err := s.cipher.Encrypt(image)
	if err != nil {
		return 0, fmt.Errorf("encrypt screenshot: %w", err)
	}

	id, err := s.queries.InsertScreenshot(ctx, sqlc.InsertScreenshotParams{
		CapturedAt:    pgtype.Timestamptz{Time: capturedAt, Valid: true},
		Application:   application,
		WindowTitle:   windowTitle,
		EncryptedData: encrypted,
		FileHash:      hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return 0, fmt.Errorf("insert screenshot: %w", err)
	}

	s.logger.Debug("screenshot stored",
		"id", id, "application", application, "bytes", len(image))
	return id, nil
}

// Get returns a screenshot's metadata and decrypted image.
func (s *Store) Get(ctx context.Context, id int64) (*Metadata, []byte, error) {
	row, err := s.queries.GetScreenshot(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("get screenshot: %w", err)
	}

	image, err := s.cipher.Decrypt(row.EncryptedData)
	if err != nil {
		return nil, nil, err
	}

	return &Metadata{
		ID:          row.ID,
		CapturedAt:  row.CapturedAt.Time,
		Application: row.Application,
		WindowTitle: row.WindowTitle,
		FileHash:    row.FileHash,
	}, image, nil
}

// Recent lists screenshot metadata matching the filter, newest first.
func (s *Store) Recent(ctx context.Context, filter Filter) ([]Metadata, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	params := sqlc.RecentScreenshotsParams{ResultLimit: int32(limit)}
	if filter.Application != "" {
		params.Application = &filter.Application
	}
	if !filter.Since.IsZero() {
		params.Since = pgtype.Timestamptz{Time: filter.Since, Valid: true}
	}
	if !filter.Until.IsZero() {
		params.Until = pgtype.Timestamptz{Time: filter.Until, Valid: true}
	}

	rows, err := s.queries.RecentScreenshots(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}

	items := make([]Metadata, 0, len(rows))
	for _, row := range rows {
		items = append(items, Metadata{
			ID:          row.ID,
			CapturedAt:  row.CapturedAt.Time,
			Application: row.Application,
			WindowTitle: row.WindowTitle,
			FileHash:    row.FileHash,
		})
	}
	return items, nil
}

// Delete removes a stored screenshot.
func (s *Store) Delete(ctx context.Context, id int64) error {
	affected, err := s.queries.DeleteScreenshot(ctx, id)
	if err != nil {
		return fmt.Errorf("delete screenshot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// Stats reports archive totals, per-application counts and the covered
// date range.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.queries.CountScreenshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("count screenshots: %w", err)
	}

	stats := &Stats{Total: total, ByApplication: make(map[string]int64)}
	if total == 0 {
		return stats, nil
	}

	counts, err := s.queries.ScreenshotApplicationCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("application counts: %w", err)
	}
	for _, c := range counts {
		stats.ByApplication[c.Application] = c.ScreenshotCount
	}

	dateRange, err := s.queries.ScreenshotDateRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("date range: %w", err)
	}
	if dateRange.Oldest.Valid {
		oldest := dateRange.Oldest.Time
		stats.Oldest = &oldest
	}
	if dateRange.Newest.Valid {
		newest := dateRange.Newest.Time
		stats.Newest = &newest
	}
	return stats, nil
}

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

var _ SnapshotRepository = (*SqlSnapshotRepository)(nil)

// SqlSnapshotRepository persists dated briefing snapshots. The store is
// bounded: every save prunes entries older than the retention window and
// trims the table to retention+1 rows (today plus the trailing window).
type SqlSnapshotRepository struct {
	db            *DB
	retentionDays int
}

func NewSnapshotRepository(db *DB, retentionDays int) *SqlSnapshotRepository {
	return &SqlSnapshotRepository{db: db, retentionDays: retentionDays}
}

// SaveSnapshot overwrites the snapshot for its date, then prunes the
// store. Write path is read-modify-write per row via upsert; reads never
// mutate.
func (r *SqlSnapshotRepository) SaveSnapshot(snapshot BriefingSnapshot) error {
	articles := snapshot.Articles
	if len(articles) > SnapshotArticleLimit {
		articles = articles[:SnapshotArticleLimit]
	}

	payload, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot articles: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO briefing_snapshots (date, articles, saved_at, article_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			articles = excluded.articles,
			saved_at = excluded.saved_at,
			article_count = excluded.article_count
	`, snapshot.Date, string(payload), snapshot.SavedAt.UTC().Format(time.RFC3339), len(articles))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return r.prune()
}

func (r *SqlSnapshotRepository) prune() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.retentionDays).Format("2006-01-02")

	if _, err := r.db.Exec(`DELETE FROM briefing_snapshots WHERE date < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune old snapshots: %w", err)
	}

	// Retention window plus today's entry.
	_, err := r.db.Exec(`
		DELETE FROM briefing_snapshots
		WHERE date NOT IN (
			SELECT date FROM briefing_snapshots ORDER BY date DESC LIMIT ?
		)
	`, r.retentionDays+1)
	if err != nil {
		return fmt.Errorf("failed to trim snapshot store: %w", err)
	}

	return nil
}

func (r *SqlSnapshotRepository) GetSnapshot(date string) (*BriefingSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT date, articles, saved_at, article_count
		FROM briefing_snapshots WHERE date = ?
	`, date)

	return r.scanSnapshot(row)
}

func (r *SqlSnapshotRepository) GetLatestSnapshot() (*BriefingSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT date, articles, saved_at, article_count
		FROM briefing_snapshots ORDER BY date DESC LIMIT 1
	`)

	return r.scanSnapshot(row)
}

func (r *SqlSnapshotRepository) ListSnapshots() ([]BriefingSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT date, articles, saved_at, article_count
		FROM briefing_snapshots ORDER BY date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []BriefingSnapshot
	for rows.Next() {
		snapshot, err := r.scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}

	return snapshots, rows.Err()
}

func (r *SqlSnapshotRepository) GetSnapshotCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM briefing_snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SqlSnapshotRepository) scanSnapshot(row *sql.Row) (*BriefingSnapshot, error) {
	snapshot, err := r.scanSnapshotRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return snapshot, err
}

func (r *SqlSnapshotRepository) scanSnapshotRow(row rowScanner) (*BriefingSnapshot, error) {
	var snapshot BriefingSnapshot
	var payload string
	var savedAt string

	if err := row.Scan(&snapshot.Date, &payload, &savedAt, &snapshot.ArticleCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	var articles []feed.Article
	if err := json.Unmarshal([]byte(payload), &articles); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot articles: %w", err)
	}
	snapshot.Articles = articles

	parsed, err := time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}
	snapshot.SavedAt = parsed

	return &snapshot, nil
}

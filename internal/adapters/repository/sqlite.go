package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/ranqr/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS collection (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    search_prefix TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS item (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collection_id INTEGER NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    media_link TEXT NOT NULL DEFAULT '',
    points INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (collection_id, name)
);

CREATE INDEX IF NOT EXISTS idx_item_collection_id ON item(collection_id);

CREATE TABLE IF NOT EXISTS comparison (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    collection_id INTEGER NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
    item_low_id INTEGER NOT NULL REFERENCES item(id) ON DELETE CASCADE,
    item_high_id INTEGER NOT NULL REFERENCES item(id) ON DELETE CASCADE,
    outcome TEXT NOT NULL CHECK (outcome IN ('item1', 'item2', 'tie')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (item_low_id, item_high_id)
);

CREATE INDEX IF NOT EXISTS idx_comparison_collection_id ON comparison(collection_id);
CREATE INDEX IF NOT EXISTS idx_comparison_low ON comparison(item_low_id);
CREATE INDEX IF NOT EXISTS idx_comparison_high ON comparison(item_high_id);
`

// SQLiteStore persists the ranking state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc's driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, name, searchPrefix string) (*model.Collection, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collection (name, search_prefix, created_at) VALUES (?, ?, ?)`,
		name, searchPrefix, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("collection %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return &model.Collection{ID: id, Name: name, SearchPrefix: searchPrefix, CreatedAt: now}, nil
}

func (s *SQLiteStore) Collection(ctx context.Context, id int64) (*model.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, search_prefix, created_at FROM collection WHERE id = ?`, id)
	return scanCollection(row)
}

func (s *SQLiteStore) Collections(ctx context.Context) ([]CollectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.search_prefix, c.created_at,
		       (SELECT COUNT(*) FROM item i WHERE i.collection_id = c.id),
		       (SELECT COUNT(*) FROM comparison v WHERE v.collection_id = c.id)
		FROM collection c ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionSummary
	for rows.Next() {
		var c model.Collection
		var sum CollectionSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.SearchPrefix, &c.CreatedAt,
			&sum.ItemCount, &sum.ComparisonCount); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		sum.Collection = &c
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCollection(ctx context.Context, id int64, upd CollectionUpdate) (*model.Collection, error) {
	sets, args := []string{}, []any{}
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.SearchPrefix != nil {
		sets, args = append(sets, "search_prefix = ?"), append(args, *upd.SearchPrefix)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE collection SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("collection %d: %w", id, ErrConflict)
			}
			return nil, fmt.Errorf("update collection: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("collection %d: %w", id, ErrNotFound)
		}
	}
	return s.Collection(ctx, id)
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collection WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) AddItems(ctx context.Context, collectionID int64, items []NewItem) ([]*model.Item, error) {
	if _, err := s.Collection(ctx, collectionID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	created := make([]*model.Item, 0, len(items))
	for _, in := range items {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO item (collection_id, name, media_link, points, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (collection_id, name) DO NOTHING`,
			collectionID, in.Name, in.MediaLink, in.Points, now)
		if err != nil {
			return nil, fmt.Errorf("insert item %q: %w", in.Name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert item %q: %w", in.Name, err)
		}
		created = append(created, &model.Item{
			ID:           id,
			CollectionID: collectionID,
			Name:         in.Name,
			MediaLink:    in.MediaLink,
			Points:       in.Points,
			CreatedAt:    now,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *SQLiteStore) Item(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, name, media_link, points, created_at
		FROM item WHERE id = ?`, id)
	return scanItem(row)
}

func (s *SQLiteStore) Items(ctx context.Context, collectionID int64) ([]*model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, name, media_link, points, created_at
		FROM item WHERE collection_id = ? ORDER BY id`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []*model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.CollectionID, &it.Name, &it.MediaLink,
			&it.Points, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateItem(ctx context.Context, id int64, upd ItemUpdate) (*model.Item, error) {
	sets, args := []string{}, []any{}
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.MediaLink != nil {
		sets, args = append(sets, "media_link = ?"), append(args, *upd.MediaLink)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE item SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("item %d: %w", id, ErrConflict)
			}
			return nil, fmt.Errorf("update item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
	}
	return s.Item(ctx, id)
}

func (s *SQLiteStore) UpdatePoints(ctx context.Context, points map[int64]int) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for id, pts := range points {
		if _, err := tx.ExecContext(ctx,
			`UPDATE item SET points = ? WHERE id = ?`, pts, id); err != nil {
			return fmt.Errorf("update points for item %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM item WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Comparisons(ctx context.Context, collectionID int64) ([]*model.Comparison, error) {
	return s.queryComparisons(ctx, `
		SELECT id, collection_id, item_low_id, item_high_id, outcome, created_at
		FROM comparison WHERE collection_id = ? ORDER BY id`, collectionID)
}

func (s *SQLiteStore) ComparisonsInvolving(ctx context.Context, itemID int64) ([]*model.Comparison, error) {
	return s.queryComparisons(ctx, `
		SELECT id, collection_id, item_low_id, item_high_id, outcome, created_at
		FROM comparison WHERE item_low_id = ? OR item_high_id = ? ORDER BY id`, itemID, itemID)
}

func (s *SQLiteStore) queryComparisons(ctx context.Context, query string, args ...any) ([]*model.Comparison, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	defer rows.Close()

	var out []*model.Comparison
	for rows.Next() {
		var c model.Comparison
		if err := rows.Scan(&c.ID, &c.CollectionID, &c.Pair.Low, &c.Pair.High,
			&c.Outcome, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertComparison(ctx context.Context, c *model.Comparison) error {
	now := c.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comparison (collection_id, item_low_id, item_high_id, outcome, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (item_low_id, item_high_id) DO UPDATE SET outcome = excluded.outcome`,
		c.CollectionID, c.Pair.Low, c.Pair.High, string(c.Outcome), now)
	if err != nil {
		return fmt.Errorf("upsert comparison: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM comparison WHERE item_low_id = ? AND item_high_id = ?`,
		c.Pair.Low, c.Pair.High)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("reload comparison: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteComparisons(ctx context.Context, collectionID int64, pairs []model.Pair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, p := range pairs {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM comparison
			WHERE collection_id = ? AND item_low_id = ? AND item_high_id = ?`,
			collectionID, p.Low, p.High)
		if err != nil {
			return 0, fmt.Errorf("delete comparison: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

func scanCollection(row *sql.Row) (*model.Collection, error) {
	var c model.Collection
	if err := row.Scan(&c.ID, &c.Name, &c.SearchPrefix, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	return &c, nil
}

func scanItem(row *sql.Row) (*model.Item, error) {
	var it model.Item
	if err := row.Scan(&it.ID, &it.CollectionID, &it.Name, &it.MediaLink,
		&it.Points, &it.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return &it, nil
}

// isUniqueViolation sniffs the driver error text for a UNIQUE
// constraint failure. modernc.org/sqlite does not export a typed
// constraint error through database/sql.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

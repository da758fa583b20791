package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveInfo describes one stored save without its blob.
type SaveInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// LoadBlob returns the blob saved under key.
func (d *Database) LoadBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := d.db.QueryRowContext(ctx,
		d.q.loadSave, key,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load save %q: %w", key, err)
	}
	if blob == nil {
		blob = []byte{}
	}
	return blob, true, nil
}

// SaveBlob replaces the blob saved under key.
func (d *Database) SaveBlob(ctx context.Context, key string, blob []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("save key is required")
	}
	if blob == nil {
		blob = []byte{}
	}

	_, err := d.db.ExecContext(ctx, d.q.upsertSave, key, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// DeleteBlob removes the save under key. It reports whether a row was removed.
func (d *Database) DeleteBlob(ctx context.Context, key string) (bool, error) {
	res, err := d.db.ExecContext(ctx, d.q.deleteSave, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete save %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSaves returns every save whose key starts with prefix, ordered by key.
func (d *Database) ListSaves(ctx context.Context, prefix string) ([]SaveInfo, error) {
	rows, err := d.db.QueryContext(ctx, d.q.listSaves, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	var saves []SaveInfo
	for rows.Next() {
		var (
			info    SaveInfo
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		// LIKE is case-insensitive for ASCII in SQLite
		if !strings.HasPrefix(info.Key, prefix) {
			continue
		}
		info.UpdatedAt = time.Unix(updated, 0)
		saves = append(saves, info)
	}
	return saves, rows.Err()
}

// escapeLike neutralizes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

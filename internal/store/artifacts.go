package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertArtifact records metadata for a stored artifact. Inserting the same
// (owner, checksum) twice is a no-op, matching the idempotent blob write.
func (db *DB) InsertArtifact(ctx context.Context, a *ArtifactRow) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO artifacts (owner_id, checksum, size, compressed_size, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, checksum) DO NOTHING`,
		a.OwnerID, a.Checksum, a.Size, a.CompressedSize,
		time.Now().UTC().Format(timeFormat),
	)
	return err
}

// GetArtifact returns metadata for (owner, checksum), or ErrNotFound.
func (db *DB) GetArtifact(ctx context.Context, ownerID, checksum string) (*ArtifactRow, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, checksum, size, compressed_size, created_at
		 FROM artifacts WHERE owner_id = ? AND checksum = ?`,
		ownerID, checksum,
	)
	var a ArtifactRow
	var createdAt string
	err := row.Scan(&a.ID, &a.OwnerID, &a.Checksum, &a.Size, &a.CompressedSize, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact %s/%s: %w", ownerID, checksum, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &a, nil
}

// ArtifactExists reports whether metadata exists for (owner, checksum).
func (db *DB) ArtifactExists(ctx context.Context, ownerID, checksum string) (bool, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM artifacts WHERE owner_id = ? AND checksum = ?",
		ownerID, checksum,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

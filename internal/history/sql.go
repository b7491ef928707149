// internal/history/sql.go
//
// MySQL history table.
//
// Schema
//
//	CREATE TABLE <prefix>local_cleanurls_history (
//	    cleanhash    CHAR(64)      NOT NULL,
//	    clean        VARCHAR(1333) NOT NULL,
//	    unclean      VARCHAR(1333) NOT NULL,
//	    timemodified BIGINT        NOT NULL,
//	    PRIMARY KEY (cleanhash),
//	    KEY unclean_idx (unclean(255))
//	);
//
// cleanhash is the hex SHA-256 of clean, so the primary key covers the whole
// string however long it is.  Put uses REPLACE INTO so the key keeps only
// the latest mapping.  Get matches on both cleanhash and clean.
// timemodified is stored as a Unix timestamp like the rest of the site's
// tables.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// schema is the DDL applied by EnsureSchema.  %s is the table prefix.
const schema = `CREATE TABLE IF NOT EXISTS %slocal_cleanurls_history (
    cleanhash    CHAR(64)      NOT NULL,
    clean        VARCHAR(1333) NOT NULL,
    unclean      VARCHAR(1333) NOT NULL,
    timemodified BIGINT        NOT NULL,
    PRIMARY KEY (cleanhash),
    KEY unclean_idx (unclean(255))
)`

// cleanHash is the primary key value for clean.
func cleanHash(clean string) string {
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])
}

// SQL implements Store on a MySQL table.
type SQL struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

// NewSQL returns a store using table prefix+"local_cleanurls_history".
func NewSQL(db *sqlx.DB, prefix string) *SQL {
	return &SQL{db: db, table: prefix + "local_cleanurls_history", now: time.Now}
}

// EnsureSchema creates the table when missing.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	prefix := s.table[:len(s.table)-len("local_cleanurls_history")]
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(schema, prefix))
	return err
}

// Put implements Store.
func (s *SQL) Put(ctx context.Context, clean, unclean string) error {
	q := `REPLACE INTO ` + s.table + ` (cleanhash, clean, unclean, timemodified) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, cleanHash(clean), clean, unclean, s.now().Unix())
	return err
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, clean string) (*Record, error) {
	q := `SELECT clean, unclean, timemodified FROM ` + s.table + ` WHERE cleanhash = ? AND clean = ? LIMIT 1`
	var row struct {
		Clean        string `db:"clean"`
		Unclean      string `db:"unclean"`
		TimeModified int64  `db:"timemodified"`
	}
	if err := s.db.GetContext(ctx, &row, q, cleanHash(clean), clean); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Record{
		Clean:        row.Clean,
		Unclean:      row.Unclean,
		TimeModified: time.Unix(row.TimeModified, 0),
	}, nil
}

// DeleteByUnclean implements Store.
func (s *SQL) DeleteByUnclean(ctx context.Context, unclean string) error {
	q := `DELETE FROM ` + s.table + ` WHERE unclean = ?`
	_, err := s.db.ExecContext(ctx, q, unclean)
	return err
}

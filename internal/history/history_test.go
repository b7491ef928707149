// internal/history/history_test.go
//
// Unit-tests for the memory and SQL history stores.  SQL tests use sqlmock.

package history

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestMemoryReplaceOnSameClean(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Put(ctx, "/course/old", "/course/view.php?id=7")
	_ = m.Put(ctx, "/course/old", "/course/view.php?id=8")

	r, err := m.Get(ctx, "/course/old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Unclean != "/course/view.php?id=8" || m.Len() != 1 {
		t.Fatalf("unexpected record %#v (len %d)", r, m.Len())
	}
}

func TestMemoryDeleteByUnclean(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Put(ctx, "/a", "/x.php?id=1")
	_ = m.Put(ctx, "/b", "/x.php?id=1")
	_ = m.Put(ctx, "/c", "/x.php?id=2")

	_ = m.DeleteByUnclean(ctx, "/x.php?id=1")
	if _, err := m.Get(ctx, "/a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("/a survived: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func newSQLMock(t *testing.T) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewSQL(sqlx.NewDb(db, "mysql"), "mdl_")
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, mock
}

func TestSQLPut(t *testing.T) {
	s, mock := newSQLMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`REPLACE INTO mdl_local_cleanurls_history (cleanhash, clean, unclean, timemodified) VALUES (?, ?, ?, ?)`,
	)).
		WithArgs(cleanHash("/course/shortname"), "/course/shortname", "/course/view.php?id=7", int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Put(context.Background(), "/course/shortname", "/course/view.php?id=7"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLGet(t *testing.T) {
	s, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT clean, unclean, timemodified FROM mdl_local_cleanurls_history WHERE cleanhash = ? AND clean = ? LIMIT 1`,
	)).
		WithArgs(cleanHash("/course/shortname"), "/course/shortname").
		WillReturnRows(sqlmock.NewRows([]string{"clean", "unclean", "timemodified"}).
			AddRow("/course/shortname", "/course/view.php?id=7", int64(1700000000)))

	r, err := s.Get(context.Background(), "/course/shortname")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Unclean != "/course/view.php?id=7" || r.TimeModified.Unix() != 1700000000 {
		t.Fatalf("unexpected record: %#v", r)
	}
}

func TestSQLGetMissing(t *testing.T) {
	s, mock := newSQLMock(t)

	mock.ExpectQuery(`FROM mdl_local_cleanurls_history WHERE cleanhash = \? AND clean = \?`).
		WithArgs(cleanHash("/nope"), "/nope").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Get(context.Background(), "/nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLEnsureSchema(t *testing.T) {
	s, mock := newSQLMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS mdl_local_cleanurls_history \(\s+cleanhash\s+CHAR\(64\)\s+NOT NULL,` +
		`(?s).*PRIMARY KEY \(cleanhash\),`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// Two clean URLs sharing a long prefix must land on different keys.
func TestSQLKeyCoversWholeClean(t *testing.T) {
	s, mock := newSQLMock(t)

	long := "/category/" + strings.Repeat("deep-chain-", 40)
	a, b := long+"a-1", long+"b-2"
	if cleanHash(a) == cleanHash(b) {
		t.Fatal("distinct clean URLs share a key")
	}
	if len(cleanHash(a)) != 64 {
		t.Fatalf("key length %d, want 64", len(cleanHash(a)))
	}

	for _, c := range []string{a, b} {
		mock.ExpectExec(`REPLACE INTO mdl_local_cleanurls_history`).
			WithArgs(cleanHash(c), c, "/course/index.php?categoryid=1", int64(1700000000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		if err := s.Put(context.Background(), c, "/course/index.php?categoryid=1"); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLDeleteByUnclean(t *testing.T) {
	s, mock := newSQLMock(t)

	mock.ExpectExec(`DELETE FROM mdl_local_cleanurls_history WHERE unclean = \?`).
		WithArgs("/course/view.php?id=7").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := s.DeleteByUnclean(context.Background(), "/course/view.php?id=7"); err != nil {
		t.Fatalf("DeleteByUnclean: %v", err)
	}
}

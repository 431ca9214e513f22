package dao

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/derailed/tview"
	"github.com/rowscope/rowscope/internal/model1"
	_ "modernc.org/sqlite"
)

func init() {
	RegisterSource("sqlite", openSQLite)
}

// openSQLite serves sqlite:///path/to.db?table=T. Without a table the first
// user table is browsed.
func openSQLite(ctx context.Context, _ Factory, u *url.URL) (Provider, error) {
	path := u.Host + u.Path
	if path == "" {
		return nil, fmt.Errorf("sqlite source %q: missing database path", u.String())
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	table := u.Query().Get("table")
	if table == "" {
		if err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name LIMIT 1",
		).Scan(&table); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: no table to browse: %w", path, err)
		}
	}

	return NewSQLite(ctx, db, table)
}

// SQLite browses one table. The database orders rows itself.
type SQLite struct {
	Base

	db      *sql.DB
	table   string
	orderBy string
	mx      sync.RWMutex
}

// NewSQLite inspects the table schema and returns a provider over it.
// The provider owns db and closes it on Close.
func NewSQLite(ctx context.Context, db *sql.DB, table string) (*SQLite, error) {
	h, err := tableHeader(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := SQLite{
		db:      db,
		table:   table,
		orderBy: "rowid",
	}
	s.init(h)

	return &s, nil
}

func tableHeader(ctx context.Context, db *sql.DB, table string) (model1.Header, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var h model1.Header
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("inspect table %s: %w", table, err)
		}
		col := model1.HeaderColumn{
			Name:  name,
			Attrs: model1.Attrs{Sortable: true, Editable: true},
		}
		switch t := strings.ToUpper(typ); {
		case strings.Contains(t, "INT"), strings.Contains(t, "REAL"),
			strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"), strings.Contains(t, "NUM"):
			col.Number, col.Align = true, tview.AlignRight
		}
		h = append(h, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, ErrNoColumn)
	}

	return h, nil
}

// SortsItself returns true since ordering is pushed down to SQL.
func (s *SQLite) SortsItself() bool {
	return true
}

// Sort rebuilds the ORDER BY clause. rowid breaks final ties.
func (s *SQLite) Sort(_ context.Context, dd model1.SortDescriptions) error {
	parts := make([]string, 0, len(dd)+1)
	for _, d := range dd {
		if _, ok := s.header.IndexOf(d.Key, true); !ok {
			return fmt.Errorf("%w: %s", ErrNoColumn, d.Key)
		}
		dir := "ASC"
		if d.Direction == model1.Descending {
			dir = "DESC"
		}
		parts = append(parts, quoteIdent(d.Key)+" "+dir)
	}
	parts = append(parts, "rowid")

	s.mx.Lock()
	defer s.mx.Unlock()
	s.orderBy = strings.Join(parts, ", ")

	return nil
}

func (s *SQLite) order() string {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.orderBy
}

// Count returns the number of rows.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return n, nil
}

// FetchRange pages through the table in the current order.
func (s *SQLite) FetchRange(ctx context.Context, start, length int) (model1.Rows, error) {
	if start < 0 || length < 0 {
		return nil, fmt.Errorf("%w: start=%d length=%d", ErrOutOfRange, start, length)
	}
	cols := make([]string, 0, len(s.header))
	for _, c := range s.header {
		cols = append(cols, quoteIdent(c.Name))
	}
	q := fmt.Sprintf("SELECT rowid, %s FROM %s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(cols, ", "), quoteIdent(s.table), s.order())

	rows, err := s.db.QueryContext(ctx, q, length, start)
	if err != nil {
		return nil, fmt.Errorf("fetch %s [%d,+%d): %w", s.table, start, length, err)
	}
	defer rows.Close()

	out := make(model1.Rows, 0, length)
	vals := make([]sql.NullString, len(s.header))
	ptrs := make([]any, len(s.header)+1)
	for i := range vals {
		ptrs[i+1] = &vals[i]
	}
	for rows.Next() {
		var rowid int64
		ptrs[0] = &rowid
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		r := model1.Row{
			ID:     strconv.FormatInt(rowid, 10),
			Seq:    rowid,
			Fields: make(model1.Fields, len(vals)),
		}
		for i, v := range vals {
			if v.Valid {
				r.Fields[i] = v.String
			}
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// SetValue updates the row currently displayed at index.
func (s *SQLite) SetValue(ctx context.Context, index int, column, value string) error {
	if _, ok := s.header.IndexOf(column, true); !ok {
		return fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	t := quoteIdent(s.table)
	q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = (SELECT rowid FROM %s ORDER BY %s LIMIT 1 OFFSET ?)",
		t, quoteIdent(column), t, s.order())
	res, err := s.db.ExecContext(ctx, q, value, index)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", s.table, column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	s.emit(model1.ChangeEvent{Kind: model1.ChangeItemsReplaced, Start: index, Count: 1})

	return nil
}

// Close closes the database and the change stream.
func (s *SQLite) Close() error {
	_ = s.Base.Close()
	return s.db.Close()
}

// SeedSQLite creates table from header and bulk loads rows in one transaction.
func SeedSQLite(ctx context.Context, db *sql.DB, table string, h model1.Header, rows model1.Rows) error {
	defs := make([]string, 0, len(h))
	cols := make([]string, 0, len(h))
	marks := make([]string, 0, len(h))
	for _, c := range h {
		typ := "TEXT"
		if c.Number {
			typ = "INTEGER"
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
		cols = append(cols, quoteIdent(c.Name))
		marks = append(marks, "?")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(h))
	for _, r := range rows {
		for i := range args {
			args[i] = r.Field(i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}

	return tx.Commit()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

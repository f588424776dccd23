// Package sqltest provides pgx row doubles for code written against
// infra.SQLExecutor.
package sqltest

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SimpleRow is a pgx.Row backed by a scan function. A nil function behaves
// like a query that matched nothing.
type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// ValuesRow scans a fixed list of column values.
func ValuesRow(values ...any) SimpleRow {
	return NewSimpleRow(func(dest ...any) error { return Assign(values, dest) })
}

// ErrorRow fails every Scan with err.
func ErrorRow(err error) SimpleRow {
	return NewSimpleRow(func(...any) error { return err })
}

// Assign copies values into the pointers in dest. Each value must be
// assignable to the pointed-to type; a typed nil pointer clears a pointer column.
func Assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(values), len(dest))
	}
	for i := range dest {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return errors.New("scan: destination must be a non-nil pointer")
		}
		v := reflect.ValueOf(values[i])
		if !v.IsValid() {
			target.Elem().Set(reflect.Zero(target.Elem().Type()))
			continue
		}
		if !v.Type().AssignableTo(target.Elem().Type()) {
			return fmt.Errorf("scan: column %d: cannot assign %s to %s", i, v.Type(), target.Elem().Type())
		}
		target.Elem().Set(v)
	}
	return nil
}

// TestRowsBase fills in the pgx.Rows methods tests never use.
type TestRowsBase struct{}

func (TestRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (TestRowsBase) Conn() *pgx.Conn { return nil }

func (TestRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (TestRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (TestRowsBase) RawValues() [][]byte { return nil }

// Rows is a pgx.Rows over in-memory column values.
type Rows struct {
	TestRowsBase
	rows   [][]any
	idx    int
	err    error
	closed bool
}

// NewRows returns rows yielding each entry of rows in order.
func NewRows(rows ...[]any) *Rows {
	return &Rows{rows: rows, idx: -1}
}

// WithErr makes Err report err once iteration ends.
func (r *Rows) WithErr(err error) *Rows {
	r.err = err
	return r
}

func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.rows)
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("scan called without a current row")
	}
	return Assign(r.rows[r.idx], dest)
}

func (r *Rows) Err() error { return r.err }

func (r *Rows) Close() { r.closed = true }

// Closed reports whether Close was called.
func (r *Rows) Closed() bool { return r.closed }

var (
	_ pgx.Row  = SimpleRow{}
	_ pgx.Rows = (*Rows)(nil)
)

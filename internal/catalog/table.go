package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"go-storefront-admin/internal/model"
)

// Table is the live-table accessor of one entity.
type Table struct {
	entity *Entity
}

func (t *Table) Entity() *Entity {
	return t.entity
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (t *Table) columnList() string {
	cols := make([]string, len(t.entity.Columns))
	for i, c := range t.entity.Columns {
		cols[i] = quote(c.Name)
	}
	return strings.Join(cols, ", ")
}

func (t *Table) Exists(ctx context.Context, q sqlx.ExtContext, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	query := q.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, quote(t.entity.Table), quote(t.entity.PrimaryKey)))
	var n int
	if err := sqlx.GetContext(ctx, q, &n, query, key); err != nil {
		return false, fmt.Errorf("check %s %s: %w", t.entity.Name, key, err)
	}
	return n > 0, nil
}

// Get returns the raw column values of one row.
func (t *Table) Get(ctx context.Context, q sqlx.ExtContext, key string) (map[string]any, error) {
	query := q.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`,
		t.columnList(), quote(t.entity.Table), quote(t.entity.PrimaryKey)))

	row := make(map[string]any, len(t.entity.Columns))
	if err := q.QueryRowxContext(ctx, query, key).MapScan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", model.ErrEntityNotFound, t.entity.Name, key)
		}
		return nil, fmt.Errorf("load %s %s: %w", t.entity.Name, key, err)
	}
	return row, nil
}

// Upsert creates or updates the row identified by the primary key in
// values and reports whether it was created.
func (t *Table) Upsert(ctx context.Context, q sqlx.ExtContext, values map[string]any) (bool, error) {
	pk := t.entity.PrimaryKey
	key, _ := values[pk].(string)
	if key == "" {
		return false, fmt.Errorf("upsert %s: primary key %s is required", t.entity.Name, pk)
	}

	existed, err := t.Exists(ctx, q, key)
	if err != nil {
		return false, err
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	updates := make([]string, 0, len(values))
	for _, c := range t.entity.Columns {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, quote(c.Name))
		args = append(args, v)
		if c.Name != pk {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", quote(c.Name), quote(c.Name)))
		}
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	query := q.Rebind(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s`,
		quote(t.entity.Table),
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		quote(pk),
		conflict,
	))
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("upsert %s %s: %w", t.entity.Name, key, err)
	}
	return !existed, nil
}

// SetColumn updates a single column of an existing row.
func (t *Table) SetColumn(ctx context.Context, q sqlx.ExtContext, key string, column string, value any) error {
	if _, ok := t.entity.Column(column); !ok {
		return fmt.Errorf("%s has no column %s", t.entity.Name, column)
	}

	query := q.Rebind(fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ?`,
		quote(t.entity.Table), quote(column), quote(t.entity.PrimaryKey)))
	res, err := q.ExecContext(ctx, query, value, key)
	if err != nil {
		return fmt.Errorf("update %s.%s for %s: %w", t.entity.Name, column, key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrEntityNotFound, t.entity.Name, key)
	}
	return nil
}

func (t *Table) Delete(ctx context.Context, q sqlx.ExtContext, key string) error {
	query := q.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, quote(t.entity.Table), quote(t.entity.PrimaryKey)))
	res, err := q.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.entity.Name, key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrEntityNotFound, t.entity.Name, key)
	}
	return nil
}

// KeysWhere returns the primary keys of rows whose column equals value.
func (t *Table) KeysWhere(ctx context.Context, q sqlx.ExtContext, column string, value string) ([]string, error) {
	if _, ok := t.entity.Column(column); !ok {
		return nil, fmt.Errorf("%s has no column %s", t.entity.Name, column)
	}

	query := q.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY %s`,
		quote(t.entity.PrimaryKey), quote(t.entity.Table), quote(column), quote(t.entity.PrimaryKey)))
	var keys []string
	if err := sqlx.SelectContext(ctx, q, &keys, query, value); err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", t.entity.Name, column, err)
	}
	return keys, nil
}

// NullifyWhere clears column on every row where it equals value.
func (t *Table) NullifyWhere(ctx context.Context, q sqlx.ExtContext, column string, value string) (int64, error) {
	c, ok := t.entity.Column(column)
	if !ok || !c.Nullable {
		return 0, fmt.Errorf("%s.%s is not a nullable column", t.entity.Name, column)
	}

	query := q.Rebind(fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s = ?`,
		quote(t.entity.Table), quote(column), quote(column)))
	res, err := q.ExecContext(ctx, query, value)
	if err != nil {
		return 0, fmt.Errorf("clear %s.%s: %w", t.entity.Name, column, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// List returns up to limit rows ordered by primary key.
func (t *Table) List(ctx context.Context, q sqlx.ExtContext, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := q.Rebind(fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s LIMIT ?`,
		t.columnList(), quote(t.entity.Table), quote(t.entity.PrimaryKey)))
	rows, err := q.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.entity.Name, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		row := make(map[string]any, len(t.entity.Columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.entity.Name, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Snapshot renders a raw row as JSON-safe values keyed by column.
func (e *Entity) Snapshot(row map[string]any) (model.RecordData, error) {
	out := make(model.RecordData, len(e.Columns))
	var errs []error
	for _, c := range e.Columns {
		v, err := JSONValue(c.Kind, row[c.Name])
		if err != nil {
			errs = append(errs, fmt.Errorf("column %s: %w", c.Name, err))
			v = nil
		}
		out[c.Name] = v
	}
	return out, errors.Join(errs...)
}

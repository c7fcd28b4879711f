package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/soonish-io/notifycore/internal/db"
)

// Queryer is satisfied by both *pgxpool.Pool and pgx.Tx, so the generic helpers below run
// unmodified whether they are called on the bare pool or inside a work scope's transaction.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// find retrieves the single tuple whose primary key equals key. ErrNotFound is returned if no
// such tuple exists.
func find[T db.Model](ctx context.Context, q Queryer, key any) (*T, error) {
	var record T
	tags := db.AllTags(record)

	sql, args, err := psql.Select(
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
		sm.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
	).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	slog.Debug("executing statement", "sql", sql, "args", args)

	rows, _ := q.Query(ctx, sql, args...)
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to execute query on '%s': %w", record.TableName(), err)
	}
	return &record, nil
}

// search retrieves every tuple matching expression. A nil expression matches every tuple in the
// table. An empty slice, never an error, is returned when nothing matches.
func search[T db.Model](ctx context.Context, q Queryer, expression bob.Expression) ([]T, error) {
	var record T
	tags := db.AllTags(record)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
	}
	if expression != nil {
		mods = append(mods, sm.Where(expression))
	}

	sql, args, err := psql.Select(mods...).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	slog.Debug("executing statement", "sql", sql, "args", args)

	rows, _ := q.Query(ctx, sql, args...)
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("failed to execute query on '%s': %w", record.TableName(), err)
	}
	return records, nil
}

// findAll retrieves every tuple in the table.
func findAll[T db.Model](ctx context.Context, q Queryer) ([]T, error) {
	return search[T](ctx, q, nil)
}

// exists reports whether a tuple with primary key equal to key is present.
func exists[T db.Model](ctx context.Context, q Queryer, key any) (bool, error) {
	var record T
	sql, args, err := psql.RawQuery(
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)",
			psql.Quote(record.TableName()), psql.Quote(record.PrimaryKey())),
		key,
	).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	var result bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute query on '%s': %w", record.TableName(), err)
	}
	return result, nil
}

// create inserts record, returning the stored tuple including any database-assigned defaults
// (primary key, created_at, ...). Fields left at their zero pointer/slice value are omitted from
// the insert list entirely so the database default applies instead of an explicit NULL. When
// record.OnConflict() names a conflict target, the insert carries real upsert semantics on that
// target instead of erroring on a duplicate key (§4.1's create_subscription upsert requirement).
func create[T db.Model](ctx context.Context, q Queryer, record T) (*T, error) {
	tags := db.NonNilTags(record)
	columns, values := db.ColumnsAndValues(record, tags)

	query := psql.Insert(im.Into(record.TableName()))
	query.Expression.Columns = columns
	query.Apply(im.Values(psql.Arg(values...)))

	sql, args, err := query.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert expression: %w", err)
	}
	sql += onConflictClause(record.OnConflict(), record.PrimaryKey(), columns) + " RETURNING *"

	slog.Debug("executing statement", "sql", sql, "args", args)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into '%s': %w", record.TableName(), err)
	}

	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("failed to collect inserted '%s': %w", record.TableName(), err)
	}
	return &record, nil
}

// onConflictClause builds the " ON CONFLICT (...) DO UPDATE/NOTHING" suffix for a conflict target
// expressed as a comma-separated column list (db.Model.OnConflict()'s contract). An empty
// conflictColumns means the model has no configured conflict target, so the insert carries no
// ON CONFLICT clause at all and a duplicate key surfaces as the usual unique-violation error.
// Every insertColumns entry not part of the conflict target itself is set from EXCLUDED on a
// conflicting row; a conflict target that happens to cover every insert column degrades to DO
// NOTHING, since there would be nothing left to update.
func onConflictClause(conflictColumns, primaryKey string, insertColumns []string) string {
	if conflictColumns == "" {
		return ""
	}

	immutable := map[string]bool{primaryKey: true, "created_at": true}
	for _, column := range strings.Split(conflictColumns, ",") {
		immutable[strings.TrimSpace(column)] = true
	}

	updates := make([]string, 0, len(insertColumns))
	for _, column := range insertColumns {
		if immutable[column] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	if len(updates) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", conflictColumns)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", conflictColumns, strings.Join(updates, ", "))
}

// update applies record's changed fields (relative to the tuple currently stored under key) and
// returns the stored result after the update. fields restricts the update to exactly those
// columns; pass nil to update every tagged field of record.
func update[T db.Model](ctx context.Context, q Queryer, key any, record T, fields []string) (*T, error) {
	all := db.AllTags(record)
	tags := all
	if fields != nil {
		wanted := make(map[string]bool, len(fields))
		for _, f := range fields {
			wanted[f] = true
		}
		tags = make(db.DBTags, 0, len(fields))
		for _, tag := range all {
			if wanted[tag.Field] {
				tags = append(tags, tag)
			}
		}
	}

	if len(tags) == 0 {
		return find[T](ctx, q, key)
	}

	columns, values := db.ColumnsAndValues(record, tags)

	mods := []bob.Mod[*dialect.UpdateQuery]{
		um.Table(record.TableName()),
		um.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
		um.Returning("*"),
	}
	for i, column := range columns {
		mods = append(mods, um.SetCol(column).ToArg(values[i]))
	}

	sql, args, err := psql.Update(mods...).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	slog.Debug("executing statement", "sql", sql, "args", args)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update '%s/%v': %w", record.TableName(), key, err)
	}

	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("failed to collect updated '%s/%v': %w", record.TableName(), key, err)
	}
	return &record, nil
}

// deleteRecord removes the tuple whose primary key equals key, returning the number of rows
// affected (0 or 1 for a primary-key delete).
func deleteRecord[T db.Model](ctx context.Context, q Queryer, key any) (int64, error) {
	var record T
	sql, args, err := psql.Delete(
		dm.From(record.TableName()),
		dm.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
	).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete expression: %w", err)
	}

	slog.Debug("executing statement", "sql", sql, "args", args)

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete '%s/%v': %w", record.TableName(), key, err)
	}
	return tag.RowsAffected(), nil
}

// deleteWhere removes every tuple matching expression, returning the number of rows affected.
func deleteWhere[T db.Model](ctx context.Context, q Queryer, expression bob.Expression) (int64, error) {
	var record T
	sql, args, err := psql.Delete(
		dm.From(record.TableName()),
		dm.Where(expression),
	).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete expression: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from '%s': %w", record.TableName(), err)
	}
	return tag.RowsAffected(), nil
}

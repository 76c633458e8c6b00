// Package loader writes normalized tables into the relational store inside
// a single transaction. Either every table commits or none does.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Policy selects how incoming rows are reconciled against durable state.
type Policy string

const (
	// PolicyAppendIfAbsent inserts only rows whose primary key is not
	// already present. Repeating a load with identical input is a no-op.
	PolicyAppendIfAbsent Policy = "append_if_absent"

	// PolicyUpsert updates every column of matched rows and inserts the
	// rest in one set-based statement per table.
	PolicyUpsert Policy = "upsert"
)

// insertChunkSize bounds the number of rows per INSERT statement.
const insertChunkSize = 1000

// Loader persists normalized tables.
type Loader struct {
	db     database.DB
	schema string
	logger ectologger.Logger
	begin  func(ctx context.Context) (database.Tx, error)
}

// New creates a new loader. schema may be empty for the connection default.
func New(db database.DB, schema string, logger ectologger.Logger) *Loader {
	l := &Loader{
		db:     db,
		schema: schema,
		logger: logger,
	}
	l.begin = func(ctx context.Context) (database.Tx, error) {
		return database.BeginTx(ctx, l.db, l.logger, &sql.TxOptions{})
	}
	return l
}

// Load writes all tables inside one transaction under the given policy.
// Empty tables are skipped with a warning. Any write failure is wrapped with
// the offending table's name and rolls the whole transaction back; partial
// loads are never committed. The existence-check-then-insert sequence of
// PolicyAppendIfAbsent relies on run exclusivity (the pipeline's run lock)
// rather than on the store serializing concurrent loads.
func (l *Loader) Load(ctx context.Context, t *models.NormalizedTables, policy Policy) error {
	ctx, span := tracing.StartSpan(ctx, "loader.Load")
	defer span.End()

	if policy != PolicyAppendIfAbsent && policy != PolicyUpsert {
		return fmt.Errorf("unknown load policy %q", policy)
	}

	start := time.Now()

	tx, err := l.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range stage(t) {
		if len(table.rows) == 0 {
			l.logger.WithContext(ctx).Warnf("Skipping table %s: no input rows", table.name)
			continue
		}

		var tableErr error
		if policy == PolicyUpsert && table.pk != "" {
			tableErr = l.upsertTable(ctx, tx, table)
		} else {
			tableErr = l.appendTable(ctx, tx, table)
		}
		if tableErr != nil {
			l.logger.WithContext(ctx).WithError(tableErr).WithFields(map[string]any{"table": table.name}).Error("Failed to load table, rolling back")
			return errors.Wrapf(tableErr, "failed to load table %q", table.name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	metrics.LoadDuration.Observe(time.Since(start).Seconds())
	l.logger.WithContext(ctx).WithFields(map[string]any{"policy": string(policy)}).Infof("Load committed in %s", time.Since(start))
	return nil
}

// appendTable implements the append-if-absent path: read the full existing
// primary-key set, drop incoming rows whose key is present, insert the rest.
// Tables with a store-assigned key skip the filter and append in full.
func (l *Loader) appendTable(ctx context.Context, tx database.Tx, table tableData) error {
	rows := table.rows

	if table.pk != "" {
		existing, err := l.existingKeys(ctx, tx, table)
		if err != nil {
			return err
		}

		var skipped int
		rows, skipped = filterAbsent(table, existing)
		if skipped > 0 {
			metrics.RowsSkipped.WithLabelValues(table.name).Add(float64(skipped))
			l.logger.WithContext(ctx).WithFields(map[string]any{"table": table.name, "skipped": skipped}).Infof("Skipped %d duplicate rows for %s", skipped, table.name)
		}
	}

	if len(rows) == 0 {
		l.logger.WithContext(ctx).Infof("Nothing new to insert into %s", l.qualified(table.name))
		return nil
	}

	if err := l.insertRows(ctx, tx, table, rows, ""); err != nil {
		return err
	}

	metrics.RowsLoaded.WithLabelValues(table.name).Add(float64(len(rows)))
	l.logger.WithContext(ctx).Infof("Inserted %d rows into %s", len(rows), l.qualified(table.name))
	return nil
}

// upsertTable stages every incoming row through one set-based
// INSERT .. ON CONFLICT DO UPDATE per chunk, updating all non-key columns
// of matched rows and inserting the rest.
func (l *Loader) upsertTable(ctx context.Context, tx database.Tx, table tableData) error {
	assignments := make([]string, 0, len(table.cols))
	for _, col := range table.cols {
		if col == table.pk {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	conflict := fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", table.pk, strings.Join(assignments, ", "))

	if err := l.insertRows(ctx, tx, table, table.rows, conflict); err != nil {
		return err
	}

	metrics.RowsLoaded.WithLabelValues(table.name).Add(float64(len(table.rows)))
	l.logger.WithContext(ctx).Infof("Upserted %d rows into %s", len(table.rows), l.qualified(table.name))
	return nil
}

func (l *Loader) existingKeys(ctx context.Context, tx database.Tx, table tableData) (map[int]struct{}, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(table.pk)
	sb.From(l.qualified(table.name))

	query, args := sb.Build()
	var keys []int
	if err := tx.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read existing keys: %w", err)
	}

	existing := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		existing[k] = struct{}{}
	}
	return existing, nil
}

func (l *Loader) insertRows(ctx context.Context, tx database.Tx, table tableData, rows [][]any, suffix string) error {
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(l.qualified(table.name))
		ib.Cols(table.cols...)
		for _, row := range rows[start:end] {
			ib.Values(row...)
		}

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query+suffix, args...); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) qualified(name string) string {
	if l.schema == "" {
		return name
	}
	return l.schema + "." + name
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

type SQLiteRepository struct {
	db        *sql.DB
	batchSize int
}

var _ records.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations. batchSize outside 1..records.BatchCeiling falls
// back to records.DefaultMaxBatchSize.
func NewSQLiteRepository(dbPath string, batchSize int) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection keeps batch transactions from contending.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if batchSize < 1 || batchSize > records.BatchCeiling {
		batchSize = records.DefaultMaxBatchSize
	}
	return &SQLiteRepository{db: db, batchSize: batchSize}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) MaxBatchSize() int { return r.batchSize }

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return classify(r.db.PingContext(ctx))
}

const transactionColumns = `id, owner_id, date, kind, category, label, amount, note, payment_instrument, payment_method`

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY date, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", classify(err))
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t    core.Transaction
			date string
			kind string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &date, &kind, &t.Category, &t.Label, &t.Amount,
			&t.Note, &t.PaymentInstrument, &t.PaymentMethod); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has bad date %q: %w", t.ID, date, err)
		}
		t.Date, t.Kind = d, core.Kind(kind)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", classify(err))
	}
	return out, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.OwnerID, t.Date.String(), string(t.Kind), t.Category, t.Label, t.Amount,
		t.Note, t.PaymentInstrument, t.PaymentMethod)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", classify(err))
	}
	slog.DebugContext(ctx, "Transaction inserted", "id", id, "owner_id", t.OwnerID, "date", t.Date.String())
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, ownerID, id string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, kind = ?, category = ?, label = ?, amount = ?, note = ?,
			payment_instrument = ?, payment_method = ?, updated_at = CURRENT_TIMESTAMP
		WHERE owner_id = ? AND id = ?`,
		t.Date.String(), string(t.Kind), t.Category, t.Label, t.Amount, t.Note,
		t.PaymentInstrument, t.PaymentMethod, ownerID, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", classify(err))
	}
	return requireAffected(res, "transaction", id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", classify(err))
	}
	return requireAffected(res, "transaction", id)
}

func (r *SQLiteRepository) BatchDeleteTransactions(ctx context.Context, ownerID string, ids []string) error {
	return r.batchDelete(ctx, "transactions", ownerID, ids)
}

const fixedColumns = `id, owner_id, group_name, name, amount, kind, note, payment_instrument, payment_method, effective_from, effective_to`

func (r *SQLiteRepository) ListFixedItems(ctx context.Context, ownerID string) ([]core.FixedItemVersion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fixedColumns+` FROM fixed_item_versions WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query fixed items: %w", classify(err))
	}
	defer rows.Close()

	out := make([]core.FixedItemVersion, 0)
	for rows.Next() {
		var (
			v    core.FixedItemVersion
			kind string
			from string
			to   sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Group, &v.Name, &v.Amount, &kind, &v.Note,
			&v.PaymentInstrument, &v.PaymentMethod, &from, &to); err != nil {
			return nil, fmt.Errorf("scan fixed item: %w", err)
		}
		v.Kind = core.Kind(kind)
		v.EffectiveFrom = core.MonthKey(from)
		if v.EffectiveFrom == "" {
			v.EffectiveFrom = core.AlwaysActive
		}
		if to.Valid && to.String != "" {
			k := core.MonthKey(to.String)
			v.EffectiveTo = &k
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed items: %w", classify(err))
	}
	return out, nil
}

func (r *SQLiteRepository) InsertFixedItem(ctx context.Context, v core.FixedItemVersion) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_item_versions (`+fixedColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, v.OwnerID, v.Group, v.Name, v.Amount, string(v.Kind), v.Note,
		v.PaymentInstrument, v.PaymentMethod, string(v.From()), nullMonth(v.EffectiveTo))
	if err != nil {
		return "", fmt.Errorf("insert fixed item: %w", classify(err))
	}
	slog.DebugContext(ctx, "Fixed item version inserted", "id", id, "owner_id", v.OwnerID, "effective_from", v.From())
	return id, nil
}

func (r *SQLiteRepository) UpdateFixedItem(ctx context.Context, ownerID, id string, patch records.FixedItemPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	query, args := fixedPatchSQL(patch, ownerID, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixed item: %w", classify(err))
	}
	return requireAffected(res, "fixed item", id)
}

func (r *SQLiteRepository) DeleteFixedItem(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_item_versions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete fixed item: %w", classify(err))
	}
	return requireAffected(res, "fixed item", id)
}

func (r *SQLiteRepository) BatchDeleteFixedItems(ctx context.Context, ownerID string, ids []string) error {
	return r.batchDelete(ctx, "fixed_item_versions", ownerID, ids)
}

func (r *SQLiteRepository) BatchUpdateFixedItems(ctx context.Context, ownerID string, updates []records.FixedItemUpdate) error {
	if len(updates) > r.batchSize {
		return records.ErrBatchTooLarge
	}
	if len(updates) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			if u.Patch.IsEmpty() {
				continue
			}
			query, args := fixedPatchSQL(u.Patch, ownerID, u.ID)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update fixed item %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

// batchDelete removes ids in one transaction. Ids that are already gone are
// ignored so an interrupted run can be repeated.
func (r *SQLiteRepository) batchDelete(ctx context.Context, table, ownerID string, ids []string) error {
	if len(ids) > r.batchSize {
		return records.ErrBatchTooLarge
	}
	if len(ids) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM `+table+` WHERE owner_id = ? AND id = ?`)
		if err != nil {
			return fmt.Errorf("prepare delete: %w", err)
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, ownerID, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

func fixedPatchSQL(p records.FixedItemPatch, ownerID, id string) (string, []any) {
	var (
		sets []string
		args []any
	)
	if f := p.Fields; f != nil {
		sets = append(sets, "group_name = ?", "name = ?", "amount = ?", "kind = ?", "note = ?",
			"payment_instrument = ?", "payment_method = ?")
		args = append(args, f.Group, f.Name, f.Amount, string(f.Kind), f.Note, f.PaymentInstrument, f.PaymentMethod)
	}
	if p.EffectiveFrom != nil {
		sets = append(sets, "effective_from = ?")
		args = append(args, string(*p.EffectiveFrom))
	}
	if p.EffectiveTo != nil {
		sets = append(sets, "effective_to = ?")
		args = append(args, string(*p.EffectiveTo))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, ownerID, id)
	return `UPDATE fixed_item_versions SET ` + strings.Join(sets, ", ") + ` WHERE owner_id = ? AND id = ?`, args
}

func nullMonth(k *core.MonthKey) sql.NullString {
	if k == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*k), Valid: true}
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

// classify marks busy and locked database errors as transient.
func classify(err error) error {
	if err == nil || errors.Is(err, records.ErrTransient) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", records.ErrTransient, err)
	}
	return err
}

func isTransient(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

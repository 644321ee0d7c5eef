// Package locks provides the PostgreSQL-backed repository of memory locks.
package locks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

const lockColumns = `id, lock_name, album_title, seal_date, scan_count,
		COALESCE(last_scan_milestone, 0), user_id, upgraded_storage, created_at`

// PostgresRepository implements lock storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLock(s scanner) (*models.Lock, error) {
	var (
		l        models.Lock
		sealDate sql.Null[models.Date]
		userID   sql.NullInt64
	)
	if err := s.Scan(&l.ID, &l.Name, &l.AlbumTitle, &sealDate, &l.ScanCount,
		&l.LastScanMilestone, &userID, &l.UpgradedStorage, &l.CreatedAt); err != nil {
		return nil, err
	}
	if sealDate.Valid {
		d := sealDate.V
		l.SealDate = &d
	}
	if userID.Valid {
		id := userID.Int64
		l.UserID = &id
	}
	return &l, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Lock, error) {
	lock, err := scanLock(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.DBError(err)
	}
	return lock, nil
}

// Create inserts a lock and returns the stored row. Empty name and album
// title use the column defaults.
func (r *PostgresRepository) Create(ctx context.Context, lock models.NewLock) (*models.Lock, error) {
	query := `INSERT INTO locks (lock_name, album_title, user_id)
		VALUES (COALESCE(NULLIF($1, ''), 'Memory Lock'), COALESCE(NULLIF($2, ''), 'Wonderful Memories'), $3)
		RETURNING ` + lockColumns

	return r.getOne(ctx, query, lock.Name, lock.AlbumTitle, lock.UserID)
}

// CreateWithID inserts a lock with an explicit id. The id sequence is not
// advanced; call SyncIDSequence afterwards.
func (r *PostgresRepository) CreateWithID(ctx context.Context, id int64, lock models.NewLock) error {
	query := `INSERT INTO locks (id, lock_name, album_title, user_id) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, id, lock.Name, lock.AlbumTitle, lock.UserID); err != nil {
		return common.DBError(err)
	}
	return nil
}

// CreateBatch inserts one lock per id with a single multi-row INSERT. The
// statement is all or nothing.
func (r *PostgresRepository) CreateBatch(ctx context.Context, ids []int64, lock models.NewLock) error {
	if len(ids) == 0 {
		return nil
	}

	n := len(ids)
	rows := make([]string, n)
	args := make([]any, 0, n+3)
	for i, id := range ids {
		rows[i] = fmt.Sprintf("($%d, $%d, $%d, $%d)", i+1, n+1, n+2, n+3)
		args = append(args, id)
	}
	args = append(args, lock.Name, lock.AlbumTitle, lock.UserID)

	query := `INSERT INTO locks (id, lock_name, album_title, user_id) VALUES ` + strings.Join(rows, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.DBError(err)
	}
	return nil
}

// MaxID returns the highest lock id, or 0 when the table is empty.
func (r *PostgresRepository) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM locks`).Scan(&maxID); err != nil {
		return 0, common.DBError(err)
	}
	return maxID, nil
}

// SyncIDSequence moves the id sequence past the highest stored id.
func (r *PostgresRepository) SyncIDSequence(ctx context.Context) error {
	query := `SELECT setval(pg_get_serial_sequence('locks', 'id'), (SELECT COALESCE(MAX(id), 0) + 1 FROM locks), false)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return common.DBError(err)
	}
	return nil
}

// GetByID returns the lock or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Lock, error) {
	return r.getOne(ctx, `SELECT `+lockColumns+` FROM locks WHERE id = $1`, id)
}

// GetByIDForUpdate is GetByID taking a row lock; use it inside a transaction.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Lock, error) {
	return r.getOne(ctx, `SELECT `+lockColumns+` FROM locks WHERE id = $1 FOR UPDATE`, id)
}

// ListByUser returns the locks owned by userID ordered by id.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Lock, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+lockColumns+` FROM locks WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, common.DBError(err)
	}
	defer rows.Close()

	result := []*models.Lock{}
	for rows.Next() {
		lock, err := scanLock(rows)
		if err != nil {
			return nil, common.DBError(err)
		}
		result = append(result, lock)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DBError(err)
	}
	return result, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM locks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, common.DBError(err)
	}
	return exists, nil
}

// Update writes only the fields set in update and returns the reloaded lock.
// An empty update fails with common.ErrorInvalidArgument without touching
// the database.
func (r *PostgresRepository) Update(ctx context.Context, id int64, update models.LockUpdate) (*models.Lock, error) {
	b := dbx.NewUpdate("locks")
	dbx.SetField(b, "lock_name", update.Name)
	dbx.SetField(b, "album_title", update.AlbumTitle)
	dbx.SetField(b, "seal_date", update.SealDate)
	dbx.SetField(b, "user_id", update.UserID)
	dbx.SetField(b, "upgraded_storage", update.UpgradedStorage)
	dbx.SetField(b, "scan_count", update.ScanCount)
	dbx.SetField(b, "last_scan_milestone", update.LastScanMilestone)

	query, args, err := b.Build("id", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInvalidArgument, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, common.DBError(err)
	}

	return r.GetByID(ctx, id)
}

// DetachOwner clears user_id on every lock owned by userID and returns the
// number of locks detached.
func (r *PostgresRepository) DetachOwner(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE locks SET user_id = NULL WHERE user_id = $1`, userID)
	if err != nil {
		return 0, common.DBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// Package media provides the PostgreSQL-backed repository of media items
// attached to locks.
package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

const mediaColumns = `id, lock_id, storage_asset_id, url, thumbnail_url, file_name,
		is_image, is_main_picture, display_order, duration_seconds, created_at`

// PostgresRepository implements media storage over a dbx.DBTX (*sql.DB or *sql.Tx).
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

func scanItem(s scanner) (*models.MediaItem, error) {
	var (
		m            models.MediaItem
		thumbnailURL sql.NullString
		fileName     sql.NullString
		duration     sql.NullInt32
	)
	if err := s.Scan(&m.ID, &m.LockID, &m.StorageAssetID, &m.URL, &thumbnailURL, &fileName,
		&m.IsImage, &m.IsMainPicture, &m.DisplayOrder, &duration, &m.CreatedAt); err != nil {
		return nil, err
	}
	if thumbnailURL.Valid {
		m.ThumbnailURL = &thumbnailURL.String
	}
	if fileName.Valid {
		m.FileName = &fileName.String
	}
	if duration.Valid {
		d := int(duration.Int32)
		m.DurationSeconds = &d
	}
	return &m, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.MediaItem, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.DBError(err)
	}
	return item, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.DBError(err)
	}
	defer rows.Close()

	result := []*models.MediaItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, common.DBError(err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DBError(err)
	}
	return result, nil
}

// Create inserts a media item. A missing lock surfaces as a foreign key
// violation wrapped in common.ErrorStorage.
func (r *PostgresRepository) Create(ctx context.Context, item models.NewMediaItem) (*models.MediaItem, error) {
	query := `INSERT INTO media_objects (lock_id, storage_asset_id, url, thumbnail_url, file_name,
			is_image, is_main_picture, display_order, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + mediaColumns

	return r.getOne(ctx, query, item.LockID, item.StorageAssetID, item.URL, item.ThumbnailURL, item.FileName,
		item.IsImage, item.IsMainPicture, item.DisplayOrder, item.DurationSeconds)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	return r.getOne(ctx, `SELECT `+mediaColumns+` FROM media_objects WHERE id = $1`, id)
}

// ListByLock returns the media of a lock ordered by display order, then id.
func (r *PostgresRepository) ListByLock(ctx context.Context, lockID int64) ([]*models.MediaItem, error) {
	return r.list(ctx, `SELECT `+mediaColumns+` FROM media_objects WHERE lock_id = $1 ORDER BY display_order, id`, lockID)
}

// Update writes only the fields set in update and returns the reloaded item.
// It does not touch siblings; the main-picture switch is the caller's job.
func (r *PostgresRepository) Update(ctx context.Context, id int64, update models.MediaUpdate) (*models.MediaItem, error) {
	b := dbx.NewUpdate("media_objects")
	dbx.SetField(b, "storage_asset_id", update.StorageAssetID)
	dbx.SetField(b, "url", update.URL)
	dbx.SetField(b, "thumbnail_url", update.ThumbnailURL)
	dbx.SetField(b, "file_name", update.FileName)
	dbx.SetField(b, "is_image", update.IsImage)
	dbx.SetField(b, "is_main_picture", update.IsMainPicture)
	dbx.SetField(b, "display_order", update.DisplayOrder)
	dbx.SetField(b, "duration_seconds", update.DurationSeconds)

	query, args, err := b.Build("id", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInvalidArgument, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, common.DBError(err)
	}

	return r.GetByID(ctx, id)
}

// ClearMainPicture unsets is_main_picture on every item of lockID except exceptID.
func (r *PostgresRepository) ClearMainPicture(ctx context.Context, lockID, exceptID int64) error {
	query := `UPDATE media_objects SET is_main_picture = FALSE
		WHERE lock_id = $1 AND id <> $2 AND is_main_picture`

	if _, err := r.db.ExecContext(ctx, query, lockID, exceptID); err != nil {
		return common.DBError(err)
	}
	return nil
}

// UpdateDisplayOrder sets display_order of one item; a missing item is
// common.ErrorNotFound.
func (r *PostgresRepository) UpdateDisplayOrder(ctx context.Context, id int64, displayOrder int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE media_objects SET display_order = $1 WHERE id = $2`, displayOrder, id)
	if err != nil {
		return common.DBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the item and returns the deleted row so the caller can
// clean up the stored asset.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (*models.MediaItem, error) {
	return r.getOne(ctx, `DELETE FROM media_objects WHERE id = $1 RETURNING `+mediaColumns, id)
}

// DeleteByOwner removes every media item on locks owned by userID and
// returns the deleted rows.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, userID int64) ([]*models.MediaItem, error) {
	query := `DELETE FROM media_objects
		WHERE lock_id IN (SELECT id FROM locks WHERE user_id = $1)
		RETURNING ` + mediaColumns

	return r.list(ctx, query, userID)
}

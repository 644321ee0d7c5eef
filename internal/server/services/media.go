package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/logging"
	"github.com/dmitrijs2005/memorylocks/internal/server/metrics"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorylocks/internal/server/storage"
)

// UploadTarget is a presigned upload slot for a lock's media.
type UploadTarget struct {
	StorageAssetID string
	UploadURL      string
}

// MediaService manages media items of locks and their stored assets.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.AssetStore
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewMediaService(db *sql.DB, rm repomanager.RepositoryManager, store storage.AssetStore, m *metrics.Metrics, logger logging.Logger) *MediaService {
	if store == nil {
		store = storage.Nop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &MediaService{db: db, repomanager: rm, store: store, metrics: m, logger: logger}
}

// Create adds a media item to an existing lock. A new main picture demotes
// the current one in the same transaction.
func (s *MediaService) Create(ctx context.Context, item models.NewMediaItem) (*models.MediaItem, error) {
	if item.LockID <= 0 {
		return nil, common.InvalidArgument("lockId is required")
	}
	if strings.TrimSpace(item.URL) == "" || strings.TrimSpace(item.StorageAssetID) == "" {
		return nil, common.InvalidArgument("url and storageAssetId are required")
	}

	exists, err := s.repomanager.Locks(s.db).Exists(ctx, item.LockID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("lock %d: %w", item.LockID, common.ErrorNotFound)
	}

	if !item.IsMainPicture {
		return s.repomanager.Media(s.db).Create(ctx, item)
	}

	var created *models.MediaItem
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Media(tx)
		if err := repo.ClearMainPicture(ctx, item.LockID, 0); err != nil {
			return err
		}
		created, err = repo.Create(ctx, item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return created, nil
}

func (s *MediaService) ListByLock(ctx context.Context, lockID int64) ([]*models.MediaItem, error) {
	return s.repomanager.Media(s.db).ListByLock(ctx, lockID)
}

// Update applies a partial update. When the item becomes the main picture
// every sibling of its current lock loses the flag within the same
// transaction.
func (s *MediaService) Update(ctx context.Context, id int64, update models.MediaUpdate) (*models.MediaItem, error) {
	if update.IsMainPicture.IsNull() || update.IsImage.IsNull() || update.DisplayOrder.IsNull() {
		return nil, common.InvalidArgument("isMainPicture, isImage and displayOrder cannot be null")
	}
	if update.URL.IsNull() || update.StorageAssetID.IsNull() {
		return nil, common.InvalidArgument("url and storageAssetId cannot be null")
	}

	if main, _ := update.IsMainPicture.Get(); !main {
		return s.repomanager.Media(s.db).Update(ctx, id, update)
	}

	var updated *models.MediaItem
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Media(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.ClearMainPicture(ctx, current.LockID, id); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, id, update)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update media %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the media row and then its stored asset. Asset removal is
// best effort: a failure is logged and counted, the row stays deleted.
func (s *MediaService) Delete(ctx context.Context, id int64) (*models.MediaItem, error) {
	item, err := s.repomanager.Media(s.db).Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	removeAssets(ctx, s.store, s.metrics, s.logger, []*models.MediaItem{item})
	return item, nil
}

// removeAssets deletes the stored assets of items, logging and counting
// failures instead of returning them.
func removeAssets(ctx context.Context, store storage.AssetStore, m *metrics.Metrics, logger logging.Logger, items []*models.MediaItem) {
	for _, item := range items {
		if item.StorageAssetID == "" {
			continue
		}
		if err := store.Delete(ctx, item.StorageAssetID, item.IsImage); err != nil {
			m.AssetDeleteFailed()
			logger.Warn(ctx, "asset delete failed", "media_id", item.ID, "asset_id", item.StorageAssetID, "error", err)
		}
	}
}

// BatchReorder applies display orders one by one. A failed item is recorded
// and the rest continue.
func (s *MediaService) BatchReorder(ctx context.Context, updates []models.OrderUpdate) (*models.BatchResult, error) {
	if len(updates) == 0 {
		return nil, common.InvalidArgument("updates must not be empty")
	}

	repo := s.repomanager.Media(s.db)
	res := &models.BatchResult{FailedIDs: []int64{}}

	for _, u := range updates {
		if err := repo.UpdateDisplayOrder(ctx, u.ID, u.DisplayOrder); err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, u.ID)
			s.logger.Warn(ctx, "display order update failed", "media_id", u.ID, "error", err)
			continue
		}
		res.Succeeded++
	}

	s.metrics.BulkItems("media_reorder", res.Succeeded, res.Failed)
	return res, nil
}

// UploadURL issues a presigned upload slot for lockID. Stores that cannot
// presign report ErrorUnsupported.
func (s *MediaService) UploadURL(ctx context.Context, lockID int64) (*UploadTarget, error) {
	presigner, ok := s.store.(storage.Presigner)
	if !ok {
		return nil, fmt.Errorf("presigned uploads: %w", common.ErrorUnsupported)
	}
	if lockID <= 0 {
		return nil, common.InvalidArgument("lockId is required")
	}

	exists, err := s.repomanager.Locks(s.db).Exists(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("lock %d: %w", lockID, common.ErrorNotFound)
	}

	assetID, url, err := presigner.PresignUpload(ctx, lockID)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadTarget{StorageAssetID: assetID, UploadURL: url}, nil
}

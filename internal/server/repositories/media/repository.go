package media

import (
	"context"

	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item models.NewMediaItem) (*models.MediaItem, error)
	GetByID(ctx context.Context, id int64) (*models.MediaItem, error)
	ListByLock(ctx context.Context, lockID int64) ([]*models.MediaItem, error)
	Update(ctx context.Context, id int64, update models.MediaUpdate) (*models.MediaItem, error)
	ClearMainPicture(ctx context.Context, lockID, exceptID int64) error
	UpdateDisplayOrder(ctx context.Context, id int64, displayOrder int) error
	Delete(ctx context.Context, id int64) (*models.MediaItem, error)
	DeleteByOwner(ctx context.Context, userID int64) ([]*models.MediaItem, error)
}

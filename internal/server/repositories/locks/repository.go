package locks

import (
	"context"

	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, lock models.NewLock) (*models.Lock, error)
	CreateWithID(ctx context.Context, id int64, lock models.NewLock) error
	CreateBatch(ctx context.Context, ids []int64, lock models.NewLock) error
	MaxID(ctx context.Context) (int64, error)
	SyncIDSequence(ctx context.Context) error
	GetByID(ctx context.Context, id int64) (*models.Lock, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Lock, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Lock, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, id int64, update models.LockUpdate) (*models.Lock, error)
	DetachOwner(ctx context.Context, userID int64) (int64, error)
}

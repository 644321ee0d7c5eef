package accounts

import (
	"context"

	"github.com/dmitrijs2005/memorylocks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account models.NewAccount) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByPhone(ctx context.Context, phone string) (*models.Account, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*models.Account, error)
	Update(ctx context.Context, id int64, update models.AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
}

package accounts

import (
	"context"

	"github.com/dmitrijs2005/ermil/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUserName(ctx context.Context, userName string) (*models.Account, error)
}

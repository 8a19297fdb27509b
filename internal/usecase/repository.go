package usecase

import (
	"context"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	List(ctx context.Context, filter *ProductFilter) ([]domain.Product, int64, error)
	SearchByText(ctx context.Context, term string, limit int) ([]domain.Product, error)
	ListBrands(ctx context.Context) ([]string, error)
	ListByBrand(ctx context.Context, brand string, limit, offset int) ([]domain.Product, int64, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	ExistsByNameBrand(ctx context.Context, name, brand, excludeID string) (bool, error)
	ExistsByBarcode(ctx context.Context, barcode, excludeID string) (bool, error)
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

package usecase

import (
	"context"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
)

type CatalogUC interface {
	ListProducts(ctx context.Context, filter *ProductFilter) (*ProductListRes, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListBrands(ctx context.Context) ([]string, error)
	ListProductsByBrand(ctx context.Context, brand string, page, limit int) (*ProductListRes, error)
	AttachProductImage(ctx context.Context, id string, image *ProductImage) (*domain.Product, error)
}

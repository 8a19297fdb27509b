package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
	"github.com/petfeed-tech/catalog-backend/pkg/e"
	"github.com/petfeed-tech/catalog-backend/pkg/logger"
	"github.com/petfeed-tech/catalog-backend/pkg/tr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPage и DefaultLimit применяются при отсутствии параметров пагинации.
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit — верхняя граница limit; значения вне [1, MaxLimit] отклоняются,
	// а не обрезаются молча.
	MaxLimit = 100
)

// CatalogUseCase реализует бизнес-логику каталога кормов.
// Проверки уникальности перед записью выполняются в транзакции и дают
// понятные сообщения о конфликте; уникальные индексы в БД остаются
// последней линией защиты при конкурентных запросах.
type CatalogUseCase struct {
	productRepo ProductRepository
	txRunner    tr.Runner
	imagesInfra ImagesInfra
	validation  *Validation
	logger      logger.Logger
}

func NewCatalogUC(
	productRepo ProductRepository,
	txRunner tr.Runner,
	imagesInfra ImagesInfra,
	validation *Validation,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo: productRepo,
		txRunner:    txRunner,
		imagesInfra: imagesInfra,
		validation:  validation,
		logger:      logger,
	}
}

// ListProducts возвращает страницу продуктов по нормализованному фильтру.
func (c *CatalogUseCase) ListProducts(ctx context.Context, filter *ProductFilter) (*ProductListRes, error) {
	const op = "CatalogUseCase.ListProducts"

	if filter.Page == 0 {
		filter.Page = DefaultPage
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultLimit
	}

	products, total, err := c.productRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewProductListRes(products, total), nil
}

// SearchProducts выполняет полнотекстовый поиск, отсортированный по релевантности.
func (c *CatalogUseCase) SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	const op = "CatalogUseCase.SearchProducts"

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, e.NewValidationError(e.NewFieldError("q", "search term must not be empty"))
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return nil, e.NewValidationError(e.NewFieldError("limit", "limit must be between 1 and 100"))
	}

	products, err := c.productRepo.SearchByText(ctx, term, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

func (c *CatalogUseCase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	const op = "CatalogUseCase.GetProductByID"

	product, err := c.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

func (c *CatalogUseCase) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	const op = "CatalogUseCase.GetProductByBarcode"

	product, err := c.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// CreateProduct создаёт продукт после двухфазной проверки уникальности:
// сначала пара (name, brand), затем barcode. Порядок проверок определяет,
// какое из двух сообщений о конфликте увидит клиент.
func (c *CatalogUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.CreateProduct"

	if fields := c.validation.Validate(req); len(fields) > 0 {
		return nil, e.NewValidationError(fields...)
	}

	rating, err := ratingFromFloat(*req.Rating)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := domain.NewProduct(uuid.NewString(), req.Name, req.Brand, rating, newIngredients(req.Ingredients), now)
	product.Barcode = req.Barcode
	product.ImageURL = req.ImageURL
	product.Description = req.Description

	err = c.txRunner.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := c.productRepo.ExistsByNameBrand(ctx, req.Name, req.Brand, "")
		if err != nil {
			return err
		}
		if exists {
			return e.ErrNameBrandConflict
		}

		if req.Barcode != nil {
			exists, err = c.productRepo.ExistsByBarcode(ctx, *req.Barcode, "")
			if err != nil {
				return err
			}
			if exists {
				return e.ErrBarcodeConflict
			}
		}

		return c.productRepo.Create(ctx, product)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// UpdateProduct применяет частичное обновление: загружает продукт,
// заменяет присутствующие поля, перепроверяет конфликты относительно
// ДРУГИХ продуктов и обновляет updated_at.
func (c *CatalogUseCase) UpdateProduct(ctx context.Context, id string, req *UpdateProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.UpdateProduct"

	if fields := c.validation.Validate(req); len(fields) > 0 {
		return nil, e.NewValidationError(fields...)
	}

	var rating *decimal.Decimal
	if req.Rating != nil {
		r, err := ratingFromFloat(*req.Rating)
		if err != nil {
			return nil, err
		}
		rating = &r
	}

	var updated *domain.Product
	err := c.txRunner.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := c.productRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Brand != nil {
			product.Brand = *req.Brand
		}
		if req.Barcode != nil {
			product.Barcode = req.Barcode
		}
		if rating != nil {
			product.Rating = *rating
		}
		if req.Ingredients != nil {
			product.Ingredients = newIngredients(req.Ingredients)
		}
		if req.ImageURL != nil {
			product.ImageURL = req.ImageURL
		}
		if req.Description != nil {
			product.Description = req.Description
		}

		if req.Name != nil || req.Brand != nil {
			exists, err := c.productRepo.ExistsByNameBrand(ctx, product.Name, product.Brand, product.ID)
			if err != nil {
				return err
			}
			if exists {
				return e.ErrNameBrandConflict
			}
		}

		if req.Barcode != nil {
			exists, err := c.productRepo.ExistsByBarcode(ctx, *req.Barcode, product.ID)
			if err != nil {
				return err
			}
			if exists {
				return e.ErrBarcodeConflict
			}
		}

		product.UpdatedAt = time.Now().UTC()
		if err := c.productRepo.Update(ctx, product); err != nil {
			return err
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return updated, nil
}

// DeleteProduct удаляет продукт без tombstone-записей.
func (c *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "CatalogUseCase.DeleteProduct"

	if err := c.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// ListBrands возвращает уникальные бренды по возрастанию.
func (c *CatalogUseCase) ListBrands(ctx context.Context) ([]string, error) {
	const op = "CatalogUseCase.ListBrands"

	brands, err := c.productRepo.ListBrands(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return brands, nil
}

func (c *CatalogUseCase) ListProductsByBrand(ctx context.Context, brand string, page, limit int) (*ProductListRes, error) {
	const op = "CatalogUseCase.ListProductsByBrand"

	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	products, total, err := c.productRepo.ListByBrand(ctx, brand, limit, (page-1)*limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewProductListRes(products, total), nil
}

// AttachProductImage загружает изображение в S3 и записывает его URL в продукт.
// Если запись в БД не удалась, загруженный объект удаляется компенсирующей очисткой.
func (c *CatalogUseCase) AttachProductImage(ctx context.Context, id string, image *ProductImage) (*domain.Product, error) {
	const op = "CatalogUseCase.AttachProductImage"

	if _, err := c.productRepo.GetByID(ctx, id); err != nil {
		return nil, e.Wrap(op, err)
	}

	uploadRes, err := c.imagesInfra.UploadImage(ctx, NewUploadImageReq(id, image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Product
	err = c.txRunner.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := c.productRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		product.ImageURL = &uploadRes.URL
		product.UpdatedAt = time.Now().UTC()
		if err := c.productRepo.Update(ctx, product); err != nil {
			return err
		}

		updated = product
		return nil
	})
	if err != nil {
		c.logger.Warnf("cleaning up orphaned image after failed attach, product_id: %s, error: %v", id, e.Wrap(op, err))
		c.imagesInfra.CleanupImage(uploadRes.Key)
		return nil, e.Wrap(op, err)
	}

	return updated, nil
}

// newIngredients преобразует входные данные в ингредиенты, выдавая каждому идентификатор.
func newIngredients(inputs []IngredientInput) []domain.Ingredient {
	ingredients := make([]domain.Ingredient, 0, len(inputs))
	for _, in := range inputs {
		ingredients = append(ingredients, domain.NewIngredient(
			uuid.NewString(),
			in.Name,
			domain.IngredientStatus(in.Status),
			in.Description,
		))
	}
	return ingredients
}

// ratingFromFloat переводит рейтинг в decimal и отклоняет значения
// с точностью больше одного знака после запятой.
func ratingFromFloat(rating float64) (decimal.Decimal, error) {
	d := decimal.NewFromFloat(rating)
	if d.Exponent() < -1 {
		return decimal.Decimal{}, e.NewValidationError(
			e.NewFieldError("rating", "rating must have at most one decimal place"),
		)
	}

	return d, nil
}

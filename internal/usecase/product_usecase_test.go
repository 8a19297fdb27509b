package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/e"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository — мок usecase.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter *usecase.ProductFilter) ([]domain.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) SearchByText(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) ListBrands(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) ListByBrand(ctx context.Context, brand string, limit, offset int) ([]domain.Product, int64, error) {
	args := m.Called(ctx, brand, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) ExistsByNameBrand(ctx context.Context, name, brand, excludeID string) (bool, error) {
	args := m.Called(ctx, name, brand, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) ExistsByBarcode(ctx context.Context, barcode, excludeID string) (bool, error) {
	args := m.Called(ctx, barcode, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockImagesInfra — мок usecase.ImagesInfra.
type MockImagesInfra struct {
	mock.Mock
}

func (m *MockImagesInfra) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UploadImageRes), args.Error(1)
}

func (m *MockImagesInfra) CleanupImage(key string) {
	m.Called(key)
}

// stubRunner выполняет функцию без реальной транзакции.
type stubRunner struct{}

func (stubRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

func newCatalogUC(repo *MockProductRepository, infra *MockImagesInfra) *usecase.CatalogUseCase {
	return usecase.NewCatalogUC(repo, stubRunner{}, infra, usecase.NewValidation(), nopLogger{})
}

func validCreateReq() *usecase.CreateProductReq {
	rating := 8.5
	barcode := "4601234567890"
	return &usecase.CreateProductReq{
		Name:    "Premium Salmon Feast",
		Brand:   "NutriPet",
		Barcode: &barcode,
		Rating:  &rating,
		Ingredients: []usecase.IngredientInput{
			{Name: "Salmon", Status: "excellent", Description: "Fresh deboned salmon"},
			{Name: "Corn meal", Status: "poor", Description: "Cheap filler"},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestCreateProduct_Success(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	repo.On("ExistsByNameBrand", mock.Anything, req.Name, req.Brand, "").Return(false, nil).Once()
	repo.On("ExistsByBarcode", mock.Anything, *req.Barcode, "").Return(false, nil).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

	product, err := uc.CreateProduct(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, req.Name, product.Name)
	assert.Equal(t, req.Brand, product.Brand)
	assert.True(t, product.Rating.Equal(decimal.NewFromFloat(8.5)))
	assert.Equal(t, product.CreatedAt, product.UpdatedAt)
	assert.Len(t, product.Ingredients, 2)
	for _, ing := range product.Ingredients {
		assert.NotEmpty(t, ing.ID)
	}
	repo.AssertExpectations(t)
}

func TestCreateProduct_NameBrandConflictWinsOverBarcode(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	// Заняты и пара (name, brand), и штрихкод: клиент должен увидеть
	// конфликт имени и бренда, проверка штрихкода не выполняется.
	repo.On("ExistsByNameBrand", mock.Anything, req.Name, req.Brand, "").Return(true, nil).Once()

	product, err := uc.CreateProduct(context.Background(), req)

	require.Error(t, err)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, e.ErrNameBrandConflict)
	repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateProduct_BarcodeConflict(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	repo.On("ExistsByNameBrand", mock.Anything, req.Name, req.Brand, "").Return(false, nil).Once()
	repo.On("ExistsByBarcode", mock.Anything, *req.Barcode, "").Return(true, nil).Once()

	_, err := uc.CreateProduct(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrBarcodeConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateProduct_WithoutBarcodeSkipsBarcodeCheck(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	req.Barcode = nil
	repo.On("ExistsByNameBrand", mock.Anything, req.Name, req.Brand, "").Return(false, nil).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

	product, err := uc.CreateProduct(context.Background(), req)

	require.NoError(t, err)
	assert.Nil(t, product.Barcode)
	repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateProduct_ValidationAggregatesAllViolations(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	rating := 11.0
	barcode := "12ab"
	req := &usecase.CreateProductReq{
		Name:    "",
		Brand:   "NutriPet",
		Barcode: &barcode,
		Rating:  &rating,
		Ingredients: []usecase.IngredientInput{
			{Name: "Salmon", Status: "amazing", Description: "x"},
		},
	}

	product, err := uc.CreateProduct(context.Background(), req)

	require.Error(t, err)
	assert.Nil(t, product)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "barcode")
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "ingredients[0].status")
	assert.GreaterOrEqual(t, len(verr.Fields), 4)

	// При ошибке валидации хранилище не трогаем
	repo.AssertNotCalled(t, "ExistsByNameBrand", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_EmptyIngredientsRejected(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	req.Ingredients = nil

	_, err := uc.CreateProduct(context.Background(), req)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "ingredients", verr.Fields[0].Field)
}

func TestCreateProduct_RatingPrecisionRejected(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	req := validCreateReq()
	rating := 8.55
	req.Rating = &rating

	_, err := uc.CreateProduct(context.Background(), req)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "rating", verr.Fields[0].Field)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProduct_PartialUpdateKeepsOtherFields(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	createdAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := domain.NewProduct(
		"3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e",
		"Premium Salmon Feast",
		"NutriPet",
		decimal.NewFromFloat(8.5),
		[]domain.Ingredient{domain.NewIngredient("i-1", "Salmon", domain.StatusExcellent, "Fresh")},
		createdAt,
	)

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("ExistsByNameBrand", mock.Anything, "Ocean Catch", existing.Brand, existing.ID).Return(false, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

	updated, err := uc.UpdateProduct(context.Background(), existing.ID, &usecase.UpdateProductReq{
		Name: strPtr("Ocean Catch"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Ocean Catch", updated.Name)
	assert.Equal(t, "NutriPet", updated.Brand)
	assert.True(t, updated.Rating.Equal(decimal.NewFromFloat(8.5)))
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(createdAt))
	repo.AssertExpectations(t)
}

func TestUpdateProduct_EmptyRequestBumpsUpdatedAtOnly(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	createdAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	existing := domain.NewProduct(
		"3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e",
		"Premium Salmon Feast",
		"NutriPet",
		decimal.NewFromFloat(8.5),
		[]domain.Ingredient{domain.NewIngredient("i-1", "Salmon", domain.StatusExcellent, "Fresh")},
		createdAt,
	)

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

	updated, err := uc.UpdateProduct(context.Background(), existing.ID, &usecase.UpdateProductReq{})

	require.NoError(t, err)
	assert.Equal(t, "Premium Salmon Feast", updated.Name)
	assert.True(t, updated.UpdatedAt.After(createdAt))
	// Пустое обновление не требует проверок уникальности
	repo.AssertNotCalled(t, "ExistsByNameBrand", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repo.On("GetByID", mock.Anything, "missing-id").Return(nil, e.ErrProductNotFound).Once()

	updated, err := uc.UpdateProduct(context.Background(), "missing-id", &usecase.UpdateProductReq{
		Name: strPtr("Anything"),
	})

	require.Error(t, err)
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateProduct_BarcodeConflictExcludesSelf(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	existing := domain.NewProduct(
		"3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e",
		"Premium Salmon Feast",
		"NutriPet",
		decimal.NewFromFloat(8.5),
		[]domain.Ingredient{domain.NewIngredient("i-1", "Salmon", domain.StatusExcellent, "Fresh")},
		time.Now().UTC(),
	)

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	repo.On("ExistsByBarcode", mock.Anything, "4609876543210", existing.ID).Return(true, nil).Once()

	_, err := uc.UpdateProduct(context.Background(), existing.ID, &usecase.UpdateProductReq{
		Barcode: strPtr("4609876543210"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrBarcodeConflict)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repo.On("Delete", mock.Anything, "missing-id").Return(e.ErrProductNotFound).Once()

	err := uc.DeleteProduct(context.Background(), "missing-id")

	assert.ErrorIs(t, err, e.ErrProductNotFound)
	repo.AssertExpectations(t)
}

func TestSearchProducts_EmptyTermRejected(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	_, err := uc.SearchProducts(context.Background(), "   ", 10)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchProducts_LimitOutOfRangeRejected(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	_, err := uc.SearchProducts(context.Background(), "salmon", 101)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "limit", verr.Fields[0].Field)
}

func TestSearchProducts_TrimsTermAndDefaultsLimit(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repo.On("SearchByText", mock.Anything, "salmon", usecase.DefaultLimit).
		Return([]domain.Product{}, nil).Once()

	products, err := uc.SearchProducts(context.Background(), "  salmon  ", 0)

	require.NoError(t, err)
	assert.Empty(t, products)
	repo.AssertExpectations(t)
}

func TestListProducts_DefaultsApplied(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f *usecase.ProductFilter) bool {
		return f.Page == usecase.DefaultPage && f.Limit == usecase.DefaultLimit
	})).Return([]domain.Product{}, int64(0), nil).Once()

	res, err := uc.ListProducts(context.Background(), &usecase.ProductFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	repo.AssertExpectations(t)
}

func TestAttachProductImage_CleansUpOnDBFailure(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	existing := domain.NewProduct(
		"3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e",
		"Premium Salmon Feast",
		"NutriPet",
		decimal.NewFromFloat(8.5),
		[]domain.Ingredient{domain.NewIngredient("i-1", "Salmon", domain.StatusExcellent, "Fresh")},
		time.Now().UTC(),
	)
	image := usecase.NewProductImage([]byte{0xFF, 0xD8}, "image/jpeg", 2, "photo.jpg")
	uploadRes := usecase.NewUploadImageRes("products/abc.jpg", "http://cdn.local/products/abc.jpg")

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Twice()
	infra.On("UploadImage", mock.Anything, mock.AnythingOfType("*usecase.UploadImageReq")).
		Return(uploadRes, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Return(fmt.Errorf("connection reset")).Once()
	infra.On("CleanupImage", uploadRes.Key).Return().Once()

	updated, err := uc.AttachProductImage(context.Background(), existing.ID, image)

	require.Error(t, err)
	assert.Nil(t, updated)
	infra.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestAttachProductImage_Success(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	existing := domain.NewProduct(
		"3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e",
		"Premium Salmon Feast",
		"NutriPet",
		decimal.NewFromFloat(8.5),
		[]domain.Ingredient{domain.NewIngredient("i-1", "Salmon", domain.StatusExcellent, "Fresh")},
		time.Now().UTC(),
	)
	image := usecase.NewProductImage([]byte{0xFF, 0xD8}, "image/jpeg", 2, "photo.jpg")
	uploadRes := usecase.NewUploadImageRes("products/abc.jpg", "http://cdn.local/products/abc.jpg")

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Twice()
	infra.On("UploadImage", mock.Anything, mock.AnythingOfType("*usecase.UploadImageReq")).
		Return(uploadRes, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Once()

	updated, err := uc.AttachProductImage(context.Background(), existing.ID, image)

	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, uploadRes.URL, *updated.ImageURL)
	infra.AssertNotCalled(t, "CleanupImage", mock.Anything)
	infra.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestListProductsByBrand_PassesOffset(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repo.On("ListByBrand", mock.Anything, "NutriPet", 20, 40).
		Return([]domain.Product{}, int64(55), nil).Once()

	res, err := uc.ListProductsByBrand(context.Background(), "NutriPet", 3, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(55), res.Total)
	repo.AssertExpectations(t)
}

func TestListBrands_PropagatesError(t *testing.T) {
	repo := new(MockProductRepository)
	infra := new(MockImagesInfra)
	uc := newCatalogUC(repo, infra)

	repoErr := errors.New("connection refused")
	repo.On("ListBrands", mock.Anything).Return(nil, repoErr).Once()

	brands, err := uc.ListBrands(context.Background())

	require.Error(t, err)
	assert.Nil(t, brands)
	assert.ErrorIs(t, err, repoErr)
	repo.AssertExpectations(t)
}

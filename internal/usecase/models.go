package usecase

import (
	"github.com/petfeed-tech/catalog-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// CATALOG USECASE

// IngredientInput — входные данные одного ингредиента.
type IngredientInput struct {
	Name        string `json:"name" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=excellent good fair poor"`
	Description string `json:"description" validate:"required"`
}

// CreateProductReq — запрос на создание продукта. Все обязательные поля
// должны присутствовать; правила по полям совпадают с UpdateProductReq.
type CreateProductReq struct {
	Name        string            `json:"name" validate:"required,min=1,max=200"`
	Brand       string            `json:"brand" validate:"required,min=1,max=100"`
	Barcode     *string           `json:"barcode" validate:"omitempty,barcode"`
	Rating      *float64          `json:"rating" validate:"required,gte=0,lte=10"`
	Ingredients []IngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	ImageURL    *string           `json:"imageUrl" validate:"omitempty,url"`
	Description *string           `json:"description" validate:"omitempty,max=1000"`
}

// UpdateProductReq — частичное обновление: каждое поле опционально,
// но присутствующее поле проверяется по тем же правилам, что и при создании.
type UpdateProductReq struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=200"`
	Brand       *string           `json:"brand" validate:"omitempty,min=1,max=100"`
	Barcode     *string           `json:"barcode" validate:"omitempty,barcode"`
	Rating      *float64          `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Ingredients []IngredientInput `json:"ingredients" validate:"omitempty,min=1,dive"`
	ImageURL    *string           `json:"imageUrl" validate:"omitempty,url"`
	Description *string           `json:"description" validate:"omitempty,max=1000"`
}

// ProductFilter — нормализованный фильтр листинга после разбора query-параметров.
type ProductFilter struct {
	Page      int
	Limit     int
	Search    string
	Brand     string
	MinRating *decimal.Decimal
	MaxRating *decimal.Decimal
}

// Skip возвращает смещение пагинации.
func (f *ProductFilter) Skip() int {
	return (f.Page - 1) * f.Limit
}

// ProductListRes — страница продуктов и общее количество после фильтрации.
type ProductListRes struct {
	Products []domain.Product
	Total    int64
}

// INFRASTRUCTURE

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// UploadImageReq — запрос на загрузку изображения продукта.
type UploadImageReq struct {
	ProductID string
	Image     *ProductImage
}

// UploadImageRes — результат загрузки: ключ объекта и публичный URL.
type UploadImageRes struct {
	Key string
	URL string
}

// MAPPERS

func NewProductFilter(page, limit int) *ProductFilter {
	return &ProductFilter{Page: page, Limit: limit}
}

func NewProductListRes(products []domain.Product, total int64) *ProductListRes {
	return &ProductListRes{Products: products, Total: total}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(productID string, image *ProductImage) *UploadImageReq {
	return &UploadImageReq{ProductID: productID, Image: image}
}

func NewUploadImageRes(key, url string) *UploadImageRes {
	return &UploadImageRes{Key: key, URL: url}
}

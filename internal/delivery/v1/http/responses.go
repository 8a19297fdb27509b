package http

import (
	"math"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
	"github.com/petfeed-tech/catalog-backend/pkg/e"
)

// Response — единый конверт ответа API.
type Response struct {
	Success          bool           `json:"success"`
	Data             any            `json:"data,omitempty"`
	Message          string         `json:"message,omitempty"`
	Error            string         `json:"error,omitempty"`
	ValidationErrors []e.FieldError `json:"validationErrors,omitempty"`
}

// Pagination — блок пагинации списочных ответов.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ProductListData — содержимое data для списочных ответов.
type ProductListData struct {
	Data       []ProductResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

type IngredientResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type ProductResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Brand       string               `json:"brand"`
	Barcode     *string              `json:"barcode,omitempty"`
	Rating      float64              `json:"rating"`
	Ingredients []IngredientResponse `json:"ingredients"`
	ImageURL    *string              `json:"imageUrl,omitempty"`
	Description *string              `json:"description,omitempty"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func NewProductResponse(product *domain.Product) ProductResponse {
	ingredients := make([]IngredientResponse, 0, len(product.Ingredients))
	for _, ing := range product.Ingredients {
		ingredients = append(ingredients, IngredientResponse{
			ID:          ing.ID,
			Name:        ing.Name,
			Status:      string(ing.Status),
			Description: ing.Description,
		})
	}

	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Brand:       product.Brand,
		Barcode:     product.Barcode,
		Rating:      product.Rating.InexactFloat64(),
		Ingredients: ingredients,
		ImageURL:    product.ImageURL,
		Description: product.Description,
		CreatedAt:   product.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UpdatedAt:   product.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func NewProductListResponses(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, NewProductResponse(&products[i]))
	}
	return responses
}

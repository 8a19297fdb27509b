package converter

import (
	"encoding/json"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) (*ProductModel, error)
	ToEntity(model *ProductModel) (*domain.Product, error)
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) (*ProductModel, error) {
	ingredients := make([]IngredientModel, 0, len(entity.Ingredients))
	for _, ing := range entity.Ingredients {
		ingredients = append(ingredients, IngredientModel{
			ID:          ing.ID,
			Name:        ing.Name,
			Status:      string(ing.Status),
			Description: ing.Description,
		})
	}

	raw, err := json.Marshal(ingredients)
	if err != nil {
		return nil, err
	}

	return &ProductModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Brand:       entity.Brand,
		Barcode:     entity.Barcode,
		Rating:      entity.Rating,
		Ingredients: raw,
		ImageURL:    entity.ImageURL,
		Description: entity.Description,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}, nil
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) (*domain.Product, error) {
	var ingredients []IngredientModel
	if err := json.Unmarshal(model.Ingredients, &ingredients); err != nil {
		return nil, err
	}

	entityIngredients := make([]domain.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		entityIngredients = append(entityIngredients, domain.Ingredient{
			ID:          ing.ID,
			Name:        ing.Name,
			Status:      domain.IngredientStatus(ing.Status),
			Description: ing.Description,
		})
	}

	return &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Brand:       model.Brand,
		Barcode:     model.Barcode,
		Rating:      model.Rating,
		Ingredients: entityIngredients,
		ImageURL:    model.ImageURL,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

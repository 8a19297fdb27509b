package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngredientStatus — закрытое перечисление качества ингредиента.
type IngredientStatus string

const (
	StatusExcellent IngredientStatus = "excellent"
	StatusGood      IngredientStatus = "good"
	StatusFair      IngredientStatus = "fair"
	StatusPoor      IngredientStatus = "poor"
)

// Valid сообщает, принадлежит ли статус перечислению.
func (s IngredientStatus) Valid() bool {
	switch s {
	case StatusExcellent, StatusGood, StatusFair, StatusPoor:
		return true
	}
	return false
}

// Ingredient описывает ингредиент корма, встроенный в продукт.
type Ingredient struct {
	ID          string
	Name        string
	Status      IngredientStatus
	Description string
}

func NewIngredient(id, name string, status IngredientStatus, description string) Ingredient {
	return Ingredient{
		ID:          id,
		Name:        name,
		Status:      status,
		Description: description,
	}
}

// Product описывает продукт каталога кормов.
// Инварианты: пара (Name, Brand) глобально уникальна; Barcode, если задан,
// глобально уникален; продукт никогда не сохраняется без ингредиентов.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Barcode     *string
	Rating      decimal.Decimal // Хранится с точностью до одного знака
	Ingredients []Ingredient
	ImageURL    *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(id, name, brand string, rating decimal.Decimal, ingredients []Ingredient, createdAt time.Time) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Brand:       brand,
		Rating:      rating,
		Ingredients: ingredients,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

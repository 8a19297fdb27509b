package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
// Ингредиенты хранятся в jsonb-колонке как массив IngredientModel.
type ProductModel struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Brand       string          `db:"brand"`
	Barcode     *string         `db:"barcode"`
	Rating      decimal.Decimal `db:"rating"`
	Ingredients []byte          `db:"ingredients"`
	ImageURL    *string         `db:"image_url"`
	Description *string         `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// IngredientModel — элемент jsonb-массива ingredients.
type IngredientModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

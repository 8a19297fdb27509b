package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/e"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductFilter_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)

	filter, fields := parseProductFilter(r)

	require.Empty(t, fields)
	assert.Equal(t, usecase.DefaultPage, filter.Page)
	assert.Equal(t, usecase.DefaultLimit, filter.Limit)
	assert.Empty(t, filter.Search)
	assert.Empty(t, filter.Brand)
	assert.Nil(t, filter.MinRating)
	assert.Nil(t, filter.MaxRating)
}

func TestParseProductFilter_AllParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/products?page=2&limit=50&search=salmon&brand=NutriPet&minRating=5&maxRating=9.5", nil)

	filter, fields := parseProductFilter(r)

	require.Empty(t, fields)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 50, filter.Limit)
	assert.Equal(t, "salmon", filter.Search)
	assert.Equal(t, "NutriPet", filter.Brand)
	assert.True(t, filter.MinRating.Equal(decimal.NewFromInt(5)))
	assert.True(t, filter.MaxRating.Equal(decimal.NewFromFloat(9.5)))
	assert.Equal(t, 50, filter.Skip())
}

func TestParseProductFilter_RejectsOutOfRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/products?page=0&limit=101&minRating=-1&maxRating=11", nil)

	filter, fields := parseProductFilter(r)

	assert.Nil(t, filter)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.Contains(t, names, "page")
	assert.Contains(t, names, "limit")
	assert.Contains(t, names, "minRating")
	assert.Contains(t, names, "maxRating")
	require.Len(t, fields, 4)
}

func TestParseProductFilter_MinGreaterThanMax(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/products?minRating=8&maxRating=3", nil)

	filter, fields := parseProductFilter(r)

	assert.Nil(t, filter)
	require.Len(t, fields, 1)
	assert.Equal(t, "minRating", fields[0].Field)
}

func TestParseProductFilter_EmptySearchRejected(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products?search=%20%20", nil)

	filter, fields := parseProductFilter(r)

	assert.Nil(t, filter)
	require.Len(t, fields, 1)
	assert.Equal(t, "search", fields[0].Field)
}

func TestParseProductFilter_NonNumericRating(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products?minRating=abc", nil)

	filter, fields := parseProductFilter(r)

	assert.Nil(t, filter)
	require.Len(t, fields, 1)
	assert.Equal(t, "minRating", fields[0].Field)
}

func TestParsePagination_Bounds(t *testing.T) {
	cases := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantErrs  int
	}{
		{"empty uses defaults", "", "", usecase.DefaultPage, usecase.DefaultLimit, 0},
		{"valid values", "3", "100", 3, 100, 0},
		{"limit at minimum", "1", "1", 1, 1, 0},
		{"page zero rejected", "0", "10", usecase.DefaultPage, 10, 1},
		{"negative page rejected", "-1", "10", usecase.DefaultPage, 10, 1},
		{"limit above maximum rejected", "1", "101", 1, usecase.DefaultLimit, 1},
		{"non-numeric rejected", "abc", "def", usecase.DefaultPage, usecase.DefaultLimit, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, limit, fields := parsePagination(tc.page, tc.limit)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Len(t, fields, tc.wantErrs)
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"not found", e.ErrProductNotFound, http.StatusNotFound, "Product not found"},
		{"name brand conflict", e.ErrNameBrandConflict, http.StatusConflict, "product with this name and brand already exists"},
		{"barcode conflict", e.ErrBarcodeConflict, http.StatusConflict, "product with this barcode already exists"},
		{"bad request", e.ErrStatusBadRequest, http.StatusBadRequest, "bad request"},
		{"wrapped not found", e.Wrap("CatalogUseCase.GetProductByID", e.ErrProductNotFound), http.StatusNotFound, "Product not found"},
		{"unknown error hidden", assert.AnError, http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := ToHTTPResponse(tc.err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantMsg, msg)
		})
	}
}

func TestValidUUID(t *testing.T) {
	assert.True(t, validUUID("3f2b8c14-9a14-4b5e-8c7d-1f2a3b4c5d6e"))
	assert.False(t, validUUID("not-a-uuid"))
	assert.False(t, validUUID("3f2b8c14-9a14-4b5e-8c7d"))
	assert.False(t, validUUID("3f2b8c149a144b5e8c7d1f2a3b4c5d6e"))
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int
	}{
		{"exact division", 1, 10, 100, 10},
		{"rounds up", 1, 10, 101, 11},
		{"empty result", 1, 10, 0, 0},
		{"single partial page", 1, 10, 3, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Equal(t, tc.total, p.Total)
		})
	}
}

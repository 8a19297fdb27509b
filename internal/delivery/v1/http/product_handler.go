package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/e"
	"github.com/petfeed-tech/catalog-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalogUC    usecase.CatalogUC
	logger       logger.Logger
	maxImageSize int64
}

func NewProductHandler(catalogUC usecase.CatalogUC, logger logger.Logger, maxImageSize int64) *ProductHandler {
	return &ProductHandler{catalogUC: catalogUC, logger: logger, maxImageSize: maxImageSize}
}

// listProducts
//
//	@Summary		Список продуктов
//	@Description	Возвращает страницу продуктов с фильтрами по бренду, рейтингу и полнотекстовому поиску
//	@Tags			products
//	@Produce		json
//	@Param			page		query		int		false	"Номер страницы (с 1)"
//	@Param			limit		query		int		false	"Размер страницы, 1-100"
//	@Param			search		query		string	false	"Полнотекстовый поиск с сортировкой по релевантности"
//	@Param			brand		query		string	false	"Подстрока бренда без учёта регистра"
//	@Param			minRating	query		number	false	"Нижняя граница рейтинга, 0-10"
//	@Param			maxRating	query		number	false	"Верхняя граница рейтинга, 0-10"
//	@Success		200			{object}	Response
//	@Failure		400			{object}	Response	"Ошибка валидации"
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter, fields := parseProductFilter(r)
	if len(fields) > 0 {
		p.logger.Warnf("%d invalid list query: %s", http.StatusBadRequest, r.URL.RawQuery)
		WriteValidationErrors(w, fields)
		return
	}

	res, err := p.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{
		Data: ProductListData{
			Data:       NewProductListResponses(res.Products),
			Pagination: NewPagination(filter.Page, filter.Limit, res.Total),
		},
	})
}

// searchProducts
//
//	@Summary		Поиск продуктов
//	@Description	Чистый полнотекстовый поиск без пагинации, сортировка по релевантности
//	@Tags			products
//	@Produce		json
//	@Param			q		query		string	true	"Поисковый запрос"
//	@Param			limit	query		int		false	"Максимум результатов, 1-100"
//	@Success		200		{object}	Response
//	@Failure		400		{object}	Response
//	@Router			/products/search [get]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteValidationErrors(w, []e.FieldError{e.NewFieldError("limit", "limit must be an integer between 1 and 100")})
			return
		}
		limit = parsed
	}

	products, err := p.catalogUC.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{Data: NewProductListResponses(products)})
}

// createProduct
//
//	@Summary		Создание продукта
//	@Description	Создает продукт после проверки уникальности пары (name, brand) и штрихкода
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		usecase.CreateProductReq	true	"Продукт"
//	@Success		201		{object}	Response
//	@Failure		400		{object}	Response	"Ошибка валидации"
//	@Failure		409		{object}	Response	"Конфликт уникальности"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateProductReq
	if err := decodeJSONBody(r, &req); err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.catalogUC.CreateProduct(r.Context(), &req)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, Response{
		Data:    NewProductResponse(product),
		Message: "Product created successfully",
	})
}

// getProductByID
//
//	@Summary	Продукт по идентификатору
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"UUID продукта"
//	@Success	200	{object}	Response
//	@Failure	400	{object}	Response
//	@Failure	404	{object}	Response
//	@Router		/products/id/{id} [get]
func (p *ProductHandler) getProductByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validUUID(id) {
		WriteValidationErrors(w, []e.FieldError{e.NewFieldError("id", "id must be a valid UUID")})
		return
	}

	product, err := p.catalogUC.GetProductByID(r.Context(), id)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{Data: NewProductResponse(product)})
}

// getProductByBarcode
//
//	@Summary	Продукт по штрихкоду
//	@Tags		products
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод, 8-14 цифр"
//	@Success	200		{object}	Response
//	@Failure	400		{object}	Response	"Неверный формат штрихкода"
//	@Failure	404		{object}	Response
//	@Router		/products/{barcode} [get]
func (p *ProductHandler) getProductByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "key")

	// Формат проверяется до обращения к хранилищу
	if !usecase.ValidBarcode(barcode) {
		WriteValidationErrors(w, []e.FieldError{e.NewFieldError("barcode", "barcode must consist of 8 to 14 digits")})
		return
	}

	product, err := p.catalogUC.GetProductByBarcode(r.Context(), barcode)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{Data: NewProductResponse(product)})
}

// updateProduct
//
//	@Summary		Частичное обновление продукта
//	@Description	Заменяет присутствующие поля, перепроверяет конфликты и обновляет updatedAt
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"UUID продукта"
//	@Param			product	body		usecase.UpdateProductReq	true	"Изменяемые поля"
//	@Success		200		{object}	Response
//	@Failure		400		{object}	Response
//	@Failure		404		{object}	Response
//	@Failure		409		{object}	Response
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "key")
	if !validUUID(id) {
		WriteValidationErrors(w, []e.FieldError{e.NewFieldError("id", "id must be a valid UUID")})
		return
	}

	var req usecase.UpdateProductReq
	if err := decodeJSONBody(r, &req); err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.catalogUC.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{
		Data:    NewProductResponse(product),
		Message: "Product updated successfully",
	})
}

// deleteProduct
//
//	@Summary	Удаление продукта
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"UUID продукта"
//	@Success	200	{object}	Response
//	@Failure	404	{object}	Response
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "key")
	if !validUUID(id) {
		WriteValidationErrors(w, []e.FieldError{e.NewFieldError("id", "id must be a valid UUID")})
		return
	}

	if err := p.catalogUC.DeleteProduct(r.Context(), id); err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{Message: "Product deleted successfully"})
}

// listBrands
//
//	@Summary	Список брендов
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	Response	"Уникальные бренды по возрастанию"
//	@Router		/products/brands [get]
func (p *ProductHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := p.catalogUC.ListBrands(r.Context())
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{Data: brands})
}

// listProductsByBrand
//
//	@Summary	Продукты бренда
//	@Tags		products
//	@Produce	json
//	@Param		brand	path		string	true	"Бренд (точное совпадение без учёта регистра)"
//	@Param		page	query		int		false	"Номер страницы"
//	@Param		limit	query		int		false	"Размер страницы, 1-100"
//	@Success	200		{object}	Response
//	@Failure	400		{object}	Response
//	@Router		/products/brand/{brand} [get]
func (p *ProductHandler) listProductsByBrand(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")

	page, limit, fields := parsePagination(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	if len(fields) > 0 {
		WriteValidationErrors(w, fields)
		return
	}

	res, err := p.catalogUC.ListProductsByBrand(r.Context(), brand, page, limit)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{
		Data: ProductListData{
			Data:       NewProductListResponses(res.Products),
			Pagination: NewPagination(page, limit, res.Total),
		},
	})
}

// attachProductImage
//
//	@Summary		Загрузка изображения продукта
//	@Description	Принимает одно изображение (поле image), сохраняет его в S3 и записывает URL в продукт
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"UUID продукта"
//	@Param			image	formData	file	true	"Изображение (jpeg, png, webp)"
//	@Success		200		{object}	Response
//	@Failure		400		{object}	Response
//	@Failure		404		{object}	Response
//	@Router			/products/{id}/image [post]
func (p *ProductHandler) attachProductImage(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 32 << 20

	id := chi.URLParam(r, "key")
	if !validUUID(id) {
		WriteValidationErrors(w, []e.FieldError{e.NewFieldError("id", "id must be a valid UUID")})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, p.maxImageSize+maxMemory)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"], p.maxImageSize)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.catalogUC.AttachProductImage(r.Context(), id, image)
	if err != nil {
		p.writeFailure(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, Response{
		Data:    NewProductResponse(product),
		Message: "Product image uploaded successfully",
	})
}

// writeFailure логирует ошибку и пишет ответ: операционные ошибки уходят
// клиенту как есть, неожиданные — в лог целиком, клиенту generic 500.
func (p *ProductHandler) writeFailure(w http.ResponseWriter, err error) {
	var verr *e.ValidationError
	if errors.As(err, &verr) {
		p.logger.Warnf("%d validation failed: %d field error(s)", http.StatusBadRequest, len(verr.Fields))
		WriteError(w, err)
		return
	}

	code, _ := ToHTTPResponse(err)
	if code == http.StatusInternalServerError {
		p.logger.Errorf(err, "unexpected error while handling request")
	} else {
		p.logger.Warnf("%d %s", code, err.Error())
	}

	WriteError(w, err)
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/e"

	"github.com/shopspring/decimal"
)

// Канонический текстовый вид UUID (RFC 4122, версии 1-5).
var uuidRegexp = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// ToHTTPResponse переводит доменную ошибку в статус и сообщение для клиента.
// Операционные ошибки (валидация, not found, конфликты) отдаются дословно;
// всё остальное скрывается за generic-сообщением, подробности остаются в логах.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrNameBrandConflict):
		return http.StatusConflict, e.ErrNameBrandConflict.Error()
	case errors.Is(err, e.ErrBarcodeConflict):
		return http.StatusConflict, e.ErrBarcodeConflict.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrNoImage):
		return http.StatusBadRequest, e.ErrNoImage.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, e.ErrUnsupportedMediaType.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	var verr *e.ValidationError
	if errors.As(err, &verr) {
		WriteValidationErrors(w, verr.Fields)
		return
	}

	code, msg := ToHTTPResponse(err)
	resp := Response{Success: false, Error: msg}
	if code == http.StatusNotFound {
		// Для not found контракт требует message, а не error
		resp = Response{Success: false, Message: msg}
	}

	writeJSON(w, code, resp)
}

func WriteValidationErrors(w http.ResponseWriter, fields []e.FieldError) {
	writeJSON(w, http.StatusBadRequest, Response{
		Success:          false,
		Error:            "Validation failed",
		ValidationErrors: fields,
	})
}

func WriteSuccess(w http.ResponseWriter, status int, resp Response) {
	resp.Success = true
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// parseProductFilter превращает плоский набор query-параметров в типизированный
// фильтр. Все ошибки полей собираются в один список: клиент получает полный
// отчёт, а не первое попавшееся нарушение.
func parseProductFilter(r *http.Request) (*usecase.ProductFilter, []e.FieldError) {
	q := r.URL.Query()
	var fields []e.FieldError

	page, limit, pageFields := parsePagination(q.Get("page"), q.Get("limit"))
	fields = append(fields, pageFields...)

	filter := usecase.NewProductFilter(page, limit)
	filter.Brand = strings.TrimSpace(q.Get("brand"))

	if raw := q.Get("search"); raw != "" || q.Has("search") {
		search := strings.TrimSpace(raw)
		if search == "" {
			fields = append(fields, e.NewFieldError("search", "search must not be empty"))
		}
		filter.Search = search
	}

	filter.MinRating = parseRatingBound(q, "minRating", &fields)
	filter.MaxRating = parseRatingBound(q, "maxRating", &fields)

	if filter.MinRating != nil && filter.MaxRating != nil && filter.MinRating.GreaterThan(*filter.MaxRating) {
		fields = append(fields, e.NewFieldError("minRating", "minRating must be less than or equal to maxRating"))
	}

	if len(fields) > 0 {
		return nil, fields
	}

	return filter, nil
}

// parsePagination разбирает page и limit с политикой отклонения:
// значения вне допустимых границ — ошибка валидации, не молчаливое обрезание.
func parsePagination(pageStr, limitStr string) (int, int, []e.FieldError) {
	var fields []e.FieldError

	page := usecase.DefaultPage
	if pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			fields = append(fields, e.NewFieldError("page", "page must be a positive integer"))
		} else {
			page = parsed
		}
	}

	limit := usecase.DefaultLimit
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > usecase.MaxLimit {
			fields = append(fields, e.NewFieldError("limit", "limit must be an integer between 1 and 100"))
		} else {
			limit = parsed
		}
	}

	return page, limit, fields
}

func parseRatingBound(q map[string][]string, key string, fields *[]e.FieldError) *decimal.Decimal {
	values, ok := q[key]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}

	d, err := decimal.NewFromString(values[0])
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(10)) {
		*fields = append(*fields, e.NewFieldError(key, key+" must be a number between 0 and 10"))
		return nil
	}

	return &d
}

// validUUID проверяет канонический текстовый вид идентификатора продукта.
func validUUID(id string) bool {
	return uuidRegexp.MatchString(id)
}

func decodeJSONBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return e.Wrap("invalid request body", e.ErrStatusBadRequest)
	}
	return nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.ErrExpectedMultipart
	}
	return r.ParseMultipartForm(maxMemory)
}

// parseImage читает одно изображение из multipart-формы (поле image).
func parseImage(files []*multipart.FileHeader, maxFileSize int64) (*usecase.ProductImage, error) {
	if len(files) == 0 {
		return nil, e.ErrNoImage
	}

	fh := files[0]
	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

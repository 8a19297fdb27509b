package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 500 Internal Server Error
	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImage              = fmt.Errorf("no image provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("Product not found")

	// 409 Conflict
	ErrNameBrandConflict = fmt.Errorf("product with this name and brand already exists")
	ErrBarcodeConflict   = fmt.Errorf("product with this barcode already exists")
)

// FieldError описывает одно нарушение валидации конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError агрегирует все нарушения валидации запроса.
// Обработчики отдают клиенту весь список целиком, без fail-fast.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(v.Fields))
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func NewFieldError(field, message string) FieldError {
	return FieldError{Field: field, Message: message}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

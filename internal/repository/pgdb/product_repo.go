package pgdb

import (
	"context"
	"errors"

	"github.com/petfeed-tech/catalog-backend/internal/domain"
	"github.com/petfeed-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/e"
	"github.com/petfeed-tech/catalog-backend/pkg/tr"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const pgUniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var productColumns = []string{
	"id", "name", "brand", "barcode", "rating", "ingredients",
	"image_url", "description", "created_at", "updated_at",
}

// querier объединяет pgxpool.Pool и pgx.Tx: запросы внутри транзакции
// идут через tx из контекста, остальные — напрямую через пул.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) db(ctx context.Context) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return p.pool
}

// GetByID возвращает продукт по идентификатору или e.ErrProductNotFound.
func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, brand, barcode, rating, ingredients,
		       image_url, description, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	return p.queryOne(ctx, query, id)
}

// GetByBarcode возвращает продукт по штрихкоду или e.ErrProductNotFound.
func (p *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `
		SELECT id, name, brand, barcode, rating, ingredients,
		       image_url, description, created_at, updated_at
		FROM products
		WHERE barcode = $1
	`

	return p.queryOne(ctx, query, barcode)
}

// List возвращает отфильтрованную страницу продуктов и общее количество
// подходящих записей. Поиск по search переключает сортировку с created_at
// на релевантность полнотекстового совпадения.
func (p *ProductRepo) List(ctx context.Context, filter *usecase.ProductFilter) ([]domain.Product, int64, error) {
	conds := sq.And{}
	if filter.Brand != "" {
		conds = append(conds, sq.ILike{"brand": "%" + filter.Brand + "%"})
	}
	if filter.MinRating != nil {
		conds = append(conds, sq.GtOrEq{"rating": *filter.MinRating})
	}
	if filter.MaxRating != nil {
		conds = append(conds, sq.LtOrEq{"rating": *filter.MaxRating})
	}
	if filter.Search != "" {
		conds = append(conds, sq.Expr("search_vector @@ plainto_tsquery('english', ?)", filter.Search))
	}

	countBuilder := psql.Select("COUNT(*)").From("products")
	selectBuilder := psql.Select(productColumns...).From("products")
	if len(conds) > 0 {
		countBuilder = countBuilder.Where(conds)
		selectBuilder = selectBuilder.Where(conds)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var total int64
	if err := p.db(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if filter.Search != "" {
		selectBuilder = selectBuilder.OrderByClause(
			"ts_rank(search_vector, plainto_tsquery('english', ?)) DESC", filter.Search,
		)
	} else {
		selectBuilder = selectBuilder.OrderBy("created_at DESC")
	}
	selectBuilder = selectBuilder.
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip()))

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := p.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// SearchByText выполняет чистый полнотекстовый поиск, отсортированный
// по убыванию релевантности, без пагинации.
func (p *ProductRepo) SearchByText(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	query := `
		SELECT id, name, brand, barcode, rating, ingredients,
		       image_url, description, created_at, updated_at
		FROM products
		WHERE search_vector @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC
		LIMIT $2
	`

	return p.queryMany(ctx, query, term, limit)
}

// ListBrands возвращает уникальные бренды в лексикографическом порядке.
func (p *ProductRepo) ListBrands(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT brand FROM products ORDER BY brand ASC`

	rows, err := p.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	brands := make([]string, 0)
	for rows.Next() {
		var brand string
		if err := rows.Scan(&brand); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return brands, nil
}

// ListByBrand возвращает страницу продуктов бренда (регистронезависимое
// точное совпадение) и общее количество записей бренда.
func (p *ProductRepo) ListByBrand(ctx context.Context, brand string, limit, offset int) ([]domain.Product, int64, error) {
	countQuery := `SELECT COUNT(*) FROM products WHERE LOWER(brand) = LOWER($1)`

	var total int64
	if err := p.db(ctx).QueryRow(ctx, countQuery, brand).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT id, name, brand, barcode, rating, ingredients,
		       image_url, description, created_at, updated_at
		FROM products
		WHERE LOWER(brand) = LOWER($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	products, err := p.queryMany(ctx, query, brand, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Create вставляет новый продукт. Нарушение уникального индекса переводится
// в тот же конфликт, что и прикладная проверка — индекс закрывает гонку
// конкурентных create.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	model, err := p.conv.ToModel(product)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (
			id, name, brand, barcode, rating, ingredients,
			image_url, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = p.db(ctx).Exec(ctx, query,
		model.ID, model.Name, model.Brand, model.Barcode, model.Rating,
		model.Ingredients, model.ImageURL, model.Description,
		model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), mapUniqueViolation(err))
	}

	return nil
}

// Update перезаписывает изменяемые поля продукта по идентификатору.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	model, err := p.conv.ToModel(product)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, brand = $3, barcode = $4, rating = $5, ingredients = $6,
		    image_url = $7, description = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := p.db(ctx).Exec(ctx, query,
		model.ID, model.Name, model.Brand, model.Barcode, model.Rating,
		model.Ingredients, model.ImageURL, model.Description, model.UpdatedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), mapUniqueViolation(err))
	}

	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// Delete жёстко удаляет продукт; отсутствие записи — e.ErrProductNotFound.
func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := p.db(ctx).Exec(ctx, query, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

// ExistsByNameBrand проверяет занятость пары (name, brand), исключая продукт
// с excludeID (пустая строка — без исключений).
func (p *ProductRepo) ExistsByNameBrand(ctx context.Context, name, brand, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE name = $1 AND brand = $2
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	return p.exists(ctx, query, name, brand, nullableID(excludeID))
}

// ExistsByBarcode проверяет занятость штрихкода, исключая продукт с excludeID.
func (p *ProductRepo) ExistsByBarcode(ctx context.Context, barcode, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE barcode = $1
			  AND ($2::uuid IS NULL OR id <> $2::uuid)
		)
	`

	return p.exists(ctx, query, barcode, nullableID(excludeID))
}

func (p *ProductRepo) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := p.db(ctx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (p *ProductRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var model converter.ProductModel
	err := p.db(ctx).QueryRow(ctx, query, args...).Scan(
		&model.ID, &model.Name, &model.Brand, &model.Barcode, &model.Rating,
		&model.Ingredients, &model.ImageURL, &model.Description,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model)
}

func (p *ProductRepo) queryMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := p.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		err := rows.Scan(
			&model.ID, &model.Name, &model.Brand, &model.Barcode, &model.Rating,
			&model.Ingredients, &model.ImageURL, &model.Description,
			&model.CreatedAt, &model.UpdatedAt,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := p.conv.ToEntity(&model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// mapUniqueViolation переводит нарушение уникального индекса в доменный конфликт.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "products_name_brand_key":
		return e.ErrNameBrandConflict
	case "products_barcode_key":
		return e.ErrBarcodeConflict
	}

	return err
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

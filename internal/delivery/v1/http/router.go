package http

import (
	"net/http"

	_ "github.com/petfeed-tech/catalog-backend/docs" // Импорт сгенерированных файлов
	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, maxImageSize int64) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, Response{Message: "healthy"})
	})

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(catalogUC, r.logger, maxImageSize)
		registerProductRoutes(v1, prHandler)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/search", prHandler.searchProducts)
		pr.Get("/brands", prHandler.listBrands)
		pr.Get("/brand/{brand}", prHandler.listProductsByBrand)
		pr.Get("/id/{id}", prHandler.getProductByID)

		// У chi один wildcard на сегмент: для GET это штрихкод,
		// для остальных методов — UUID продукта.
		pr.Route("/{key}", func(kr chi.Router) {
			kr.Get("/", prHandler.getProductByBarcode)
			kr.Put("/", prHandler.updateProduct)
			kr.Delete("/", prHandler.deleteProduct)
			kr.Post("/image", prHandler.attachProductImage)
		})
	})
}

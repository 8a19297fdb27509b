package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/petfeed-tech/catalog-backend/internal/cfg"
	v1Http "github.com/petfeed-tech/catalog-backend/internal/delivery/v1/http"
	minioInfra "github.com/petfeed-tech/catalog-backend/internal/infrastructure/minio"
	s3Repo "github.com/petfeed-tech/catalog-backend/internal/repository/minio"
	"github.com/petfeed-tech/catalog-backend/internal/repository/pgdb"
	pgdbConv "github.com/petfeed-tech/catalog-backend/internal/repository/pgdb/converter"
	"github.com/petfeed-tech/catalog-backend/internal/usecase"
	"github.com/petfeed-tech/catalog-backend/pkg/clients"
	"github.com/petfeed-tech/catalog-backend/pkg/closer"
	"github.com/petfeed-tech/catalog-backend/pkg/e"
	"github.com/petfeed-tech/catalog-backend/pkg/logger"
	"github.com/petfeed-tech/catalog-backend/pkg/postgres"
	"github.com/petfeed-tech/catalog-backend/pkg/tr"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const shutdownTimeout = 10 * time.Second

// App связывает слои приложения и управляет их жизненным циклом.
type App struct {
	cfg            *config.Config
	logger         logger.Logger
	httpSrv        *v1Http.Server
	closer         *closer.Closer
	shutdownCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	prConv := pgdbConv.NewProductConverterImpl()
	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	txManager := tr.NewTxManager(db.Pool)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// shutdownCtx живёт до остановки приложения: его отмена прерывает
	// фоновые ретраи очистки MinIO.
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log, shutdownCtx)

	catalogUC := usecase.NewCatalogUC(
		productRepo,
		txManager,
		imagesInfra,
		usecase.NewValidation(),
		log,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(catalogUC, cfg.Minio.MaxImageSize)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	// Ресурсы регистрируются в порядке создания и закрываются в LIFO:
	// сначала HTTP-сервер, затем фоновая очистка MinIO, последним пул БД.
	c := closer.NewCloser(0)
	c.Add(func(_ context.Context) error {
		db.Close()
		return nil
	})
	c.Add(imagesInfra.WaitForCleanup)
	c.Add(httpSrv.Stop)

	return &App{
		cfg:            cfg,
		logger:         log,
		httpSrv:        httpSrv,
		closer:         c,
		shutdownCancel: shutdownCancel,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до сигнала остановки
// либо фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("received shutdown signal, stopping gracefully")
	}

	a.shutdownCancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()

	if err := a.closer.Close(closeCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	} else {
		a.logger.Infof("application shutdown complete")
	}

	return appErr
}

func initPGDB(log logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

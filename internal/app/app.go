package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/facade"
	healthcheck "github.com/tweakstories/storefront-core/internal/health"
	"github.com/tweakstories/storefront-core/internal/messaging/kafka"
	"github.com/tweakstories/storefront-core/internal/service/cart"
	"github.com/tweakstories/storefront-core/internal/service/gateway"
	"github.com/tweakstories/storefront-core/internal/service/orchestration"
	"github.com/tweakstories/storefront-core/internal/session"
	"github.com/tweakstories/storefront-core/internal/storage/memory"
	"github.com/tweakstories/storefront-core/internal/storage/postgres"
	"github.com/tweakstories/storefront-core/internal/store"
	"github.com/tweakstories/storefront-core/internal/version"
)

// App связывает stores, оркестратор и фасад в работающий экземпляр ядра.
type App struct {
	Facade       *facade.Facade
	Dispatcher   *store.Dispatcher
	Addresses    *store.AddressStore
	Checkout     *store.CheckoutStore
	Cart         *cart.MemoryCart
	Gateway      *gateway.MockService
	Orchestrator *orchestration.Orchestrator
	Health       *healthcheck.Handler

	cfg        Config
	logger     *log.Entry
	producer   *kafka.Producer
	pg         *postgres.Store
	httpServer *http.Server
}

// logInvalidator пишет в лог сигнал инвалидации сессии; повторная
// аутентификация — забота внешнего слоя.
type logInvalidator struct {
	logger *log.Entry
}

func (l *logInvalidator) InvalidateSession(reason error) {
	l.logger.WithError(reason).Warn("session invalidated by gateway")
}

// New создаёт и связывает все зависимости приложения.
// NOTE: Gateway здесь — конфигурируемый mock; в production его место
// занимает клиент реального storefront API.
func New(ctx context.Context, cfg Config, logger *log.Entry) (*App, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	a := &App{cfg: cfg, logger: logger}

	// Хранилище снапшотов: PostgreSQL при наличии DSN, иначе in-memory.
	var storage domain.SessionStorage
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Warn("failed to open postgres, continuing with in-memory session storage")
		} else if err := pg.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Warn("failed to ensure postgres schema, continuing with in-memory session storage")
			_ = pg.Close()
		} else {
			a.pg = pg
			storage = postgres.NewSessionStorage(pg, sessionID)
			logger.Info("postgres session storage initialized")
		}
	}
	if storage == nil {
		storage = memory.NewSessionStorage()
	}

	// Kafka producer опционален: без брокеров аналитика просто выключена.
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			a.producer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	a.Dispatcher = store.NewDispatcher(logger.WithField("component", "dispatcher"))
	a.Addresses = store.NewAddressStore(a.Dispatcher, logger.WithField("component", "address-store"))
	a.Checkout = store.NewCheckoutStore(a.Dispatcher, logger.WithField("component", "checkout-store"))
	a.Cart = cart.NewMemoryCart()
	a.Gateway = gateway.NewMockService()

	sessionAdapter := session.NewAdapter(storage, logger.WithField("component", "session-adapter"))

	opts := []orchestration.Option{
		orchestration.WithInvalidator(&logInvalidator{logger: logger}),
	}
	if a.producer != nil {
		opts = append(opts, orchestration.WithProducer(a.producer))
	}
	a.Orchestrator = orchestration.New(
		a.Dispatcher,
		a.Addresses,
		a.Checkout,
		a.Cart,
		a.Gateway,
		sessionAdapter,
		logger.WithField("component", "orchestration"),
		opts...,
	)

	a.Facade = facade.New(a.Dispatcher, a.Addresses, a.Checkout, logger.WithField("component", "facade"))

	a.Health = healthcheck.NewHandler(version.GetVersion())
	a.Health.RegisterChecker("session_storage", healthcheck.NewSimpleChecker("session_storage", func() error {
		_, _, err := storage.GetItem(session.SnapshotKey, domain.StorageScopeSession)
		return err
	}))
	if a.pg != nil {
		pg := a.pg
		a.Health.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pg.Ping(pingCtx)
		}))
	}

	return a, nil
}

// Start запускает оркестратор, восстанавливает снапшот и поднимает
// HTTP-сервер метрик и health-проверок.
func (a *App) Start(ctx context.Context) {
	a.Orchestrator.Start(ctx)
	a.Orchestrator.Boot()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", a.Health)
	mux.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	a.httpServer = &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	go func() {
		a.logger.WithField("addr", a.cfg.MetricsAddr).Info("metrics server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("metrics server failed")
		}
	}()
}

// Close останавливает HTTP-сервер и закрывает внешние подключения.
func (a *App) Close() {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("metrics server shutdown failed")
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.WithError(err).Warn("kafka producer close failed")
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.WithError(err).Warn("postgres close failed")
		}
	}
}

// Run собирает приложение и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Start(ctx)
	<-ctx.Done()
	return ctx.Err()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/app"
	"github.com/tweakstories/storefront-core/internal/domain"
)

// setupLogger настраивает формат и уровень логирования.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if os.Getenv("STOREFRONT_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
}

// waitFor опрашивает условие до таймаута. Демо-скрипт работает поверх
// асинхронных реакций, поэтому между шагами нужно дождаться их результата.
func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// runScenario проходит checkout от корзины до созданного заказа.
func runScenario(a *app.App) {
	logger := log.WithField("component", "demo")
	f := a.Facade

	a.Cart.SetItems([]domain.CartItem{
		{ProductID: "prod-42", VariantID: "var-1", Quantity: 2},
		{ProductID: "prod-7", Quantity: 1},
	})

	f.InitializeFlow()
	f.LoadAddresses()

	address := domain.Address{
		Street:      "Coolsingel",
		HouseNumber: "105",
		PostalCode:  "3012 AG",
		City:        "Rotterdam",
		CountryCode: "NL",
	}
	f.SubmitShippingStep(address, true, true)

	if !waitFor(func() bool {
		vm := f.ViewModel()
		return len(vm.Addresses) > 0 && !vm.IsLoadingAddresses
	}, 2*time.Second) {
		logger.Warn("address save did not settle in time")
	}

	vm := f.ViewModel()
	if vm.ShippingAddress != nil && len(vm.Addresses) > 0 {
		// После перезагрузки коллекции адрес доставки получает серверный id.
		saved := vm.Addresses[0]
		f.SetShippingAddress(&saved)
		f.LoadShippingMethods(saved.ID)
	}

	if !waitFor(func() bool {
		vm := f.ViewModel()
		return len(vm.ShippingMethods) > 0 && !vm.IsLoadingShippingMethods
	}, 2*time.Second) {
		logger.Warn("shipping methods did not load in time")
	}

	vm = f.ViewModel()
	if len(vm.ShippingMethods) > 0 {
		f.SetShippingMethod(vm.ShippingMethods[0].ID)
	}
	f.SetPaymentMethod("ideal-rabobank")
	f.GoToStep(domain.CheckoutStepReview)

	f.SubmitOrder()
	if !waitFor(func() bool {
		return !f.ViewModel().IsSubmittingOrder
	}, 2*time.Second) {
		logger.Warn("order submission did not settle in time")
	}

	vm = f.ViewModel()
	logger.WithFields(log.Fields{
		"active_step":     string(vm.ActiveStep),
		"addresses":       len(vm.Addresses),
		"checkout_error":  vm.CheckoutError,
		"submitted_calls": a.Gateway.SubmitCalls(),
	}).Info("сценарий checkout завершён")
}

func main() {
	setupLogger()
	cfg := app.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("metrics_addr", cfg.MetricsAddr).Info("запускаем checkout demo")

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.WithError(err).Fatal("не удалось собрать приложение")
	}
	defer a.Close()

	a.Start(ctx)
	runScenario(a)

	// Оставляем процесс живым для снятия метрик, пока его не остановят.
	if os.Getenv("STOREFRONT_DEMO_HOLD") != "" {
		<-ctx.Done()
	}

	log.Info("checkout demo остановлен")
}

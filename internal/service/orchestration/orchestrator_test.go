package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/service/cart"
	"github.com/tweakstories/storefront-core/internal/service/gateway"
	"github.com/tweakstories/storefront-core/internal/session"
	"github.com/tweakstories/storefront-core/internal/storage/memory"
	"github.com/tweakstories/storefront-core/internal/store"
)

type fixture struct {
	dispatcher *store.Dispatcher
	addresses  *store.AddressStore
	checkout   *store.CheckoutStore
	cart       *cart.MemoryCart
	gw         *gateway.MockService
	storage    domain.SessionStorage
	orch       *Orchestrator
}

// newFixture собирает полный стенд: dispatcher, stores, mock-шлюз и
// оркестратор поверх общего in-memory session storage.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		dispatcher: store.NewDispatcher(nil),
		gw:         gateway.NewMockService(),
		cart:       cart.NewMemoryCart(),
		storage:    memory.NewSessionStorage(),
	}
	f.addresses = store.NewAddressStore(f.dispatcher, nil)
	f.checkout = store.NewCheckoutStore(f.dispatcher, nil)

	return f.startOrchestrator(t, f.gw, opts...)
}

func (f *fixture) startOrchestrator(t *testing.T, gw domain.StorefrontGateway, opts ...Option) *fixture {
	t.Helper()

	opts = append([]Option{WithoutMetrics()}, opts...)
	f.orch = New(
		f.dispatcher,
		f.addresses,
		f.checkout,
		f.cart,
		gw,
		session.NewAdapter(f.storage, nil),
		nil,
		opts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.orch.Start(ctx)
	return f
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func (f *fixture) hasSnapshot(t *testing.T) bool {
	t.Helper()
	_, ok, err := f.storage.GetItem(session.SnapshotKey, domain.StorageScopeSession)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return ok
}

// Полный happy path создания адреса: оптимистичная запись появляется сразу,
// после подтверждения временный id заменяется серверным, а коллекция
// перечитывается с бекенда.
func TestOrchestrator_CreateAddress(t *testing.T) {
	f := newFixture(t)
	tempID := domain.NewTempID()

	f.dispatcher.Dispatch(store.AddressCreateRequested{
		TempID: tempID,
		Payload: domain.AddressPayload{
			Street: "Keizersgracht", HouseNumber: "12", PostalCode: "1015 CN", City: "Amsterdam", CountryCode: "NL",
		},
	})

	if _, ok := f.addresses.Get(tempID); !ok {
		t.Fatal("optimistic record must appear synchronously")
	}

	waitFor(t, func() bool {
		a, ok := f.addresses.Get("srv-1")
		return ok && a.SyncStatus == domain.SyncStatusSynced
	}, "server record never replaced the temporary one")

	if _, ok := f.addresses.Get(tempID); ok {
		t.Fatal("temporary record must be gone after confirmation")
	}

	waitFor(t, func() bool { return f.gw.GetAddressesCalls() > 0 },
		"collection must be reloaded after a successful mutation")
}

func TestOrchestrator_CreateAddressFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateErr = domain.ErrGatewayUnavailable
	tempID := domain.NewTempID()

	f.dispatcher.Dispatch(store.AddressCreateRequested{TempID: tempID})

	waitFor(t, func() bool {
		a, ok := f.addresses.Get(tempID)
		return ok && a.SyncStatus == domain.SyncStatusError
	}, "failed create must mark the record errored")

	a, _ := f.addresses.Get(tempID)
	if a.SyncError != "addresses.create: failed to save address" {
		t.Fatalf("unexpected user message: %q", a.SyncError)
	}
	if f.gw.GetAddressesCalls() != 0 {
		t.Fatal("failed mutation must not trigger a reload")
	}
}

// Обновление, отклонённое сервером, откатывается к прежней записи.
func TestOrchestrator_UpdateAddressRollback(t *testing.T) {
	f := newFixture(t)
	f.gw.SeedAddress(domain.Address{ID: "srv-1", Street: "Main", City: "Delft", SyncStatus: domain.SyncStatusSynced})

	f.dispatcher.Dispatch(store.AddressesLoadRequested{})
	waitFor(t, func() bool {
		_, ok := f.addresses.Get("srv-1")
		return ok
	}, "seeded address never loaded")

	f.gw.UpdateErr = domain.ErrGatewayUnavailable
	city := "Rotterdam"
	f.dispatcher.Dispatch(store.AddressUpdateRequested{ID: "srv-1", Patch: domain.AddressPatch{City: &city}})

	waitFor(t, func() bool {
		a, _ := f.addresses.Get("srv-1")
		return a.SyncStatus == domain.SyncStatusSynced && a.SyncError != ""
	}, "failed update must roll the record back")

	a, _ := f.addresses.Get("srv-1")
	if a.City != "Delft" {
		t.Fatalf("rollback must restore the original city, got %s", a.City)
	}
}

// Составная команда шага shipping разворачивается в канонические события:
// адрес фиксируется, создаётся на сервере и пользователь переводится дальше.
func TestOrchestrator_ShippingStepSubmitted(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(store.ShippingStepSubmitted{
		Address: domain.Address{
			Street: "Keizersgracht", HouseNumber: "12", PostalCode: "1015 CN", City: "Amsterdam", CountryCode: "NL",
		},
		SaveAddress:    true,
		ShouldNavigate: true,
	})

	st := f.checkout.State()
	if st.ShippingAddress == nil || st.ShippingAddress.City != "Amsterdam" {
		t.Fatal("shipping address must be set synchronously")
	}
	if st.ActiveStep != domain.CheckoutStepPayment {
		t.Fatalf("expected navigation to payment, got %s", st.ActiveStep)
	}
	if !st.CanProceedToPayment() {
		t.Fatal("shipping step must be completed")
	}

	waitFor(t, func() bool {
		a, ok := f.addresses.Get("srv-1")
		return ok && a.SyncStatus == domain.SyncStatusSynced
	}, "submitted address never reached the server")

	if !f.hasSnapshot(t) {
		t.Fatal("snapshot must be persisted after the shipping step")
	}
}

func TestOrchestrator_ShippingStepWithoutSaveOrNavigate(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(store.ShippingStepSubmitted{
		Address: domain.Address{ID: "srv-9", City: "Delft"},
	})

	st := f.checkout.State()
	if st.ActiveStep != domain.CheckoutStepShipping {
		t.Fatal("navigation must not happen unless requested")
	}
	if f.gw.CreateCalls() != 0 {
		t.Fatal("address must not be saved unless requested")
	}
	if st.ShippingAddress == nil || st.ShippingAddress.ID != "srv-9" {
		t.Fatal("shipping address must still be recorded")
	}
}

// blockingGateway задерживает первый create до явного release: так проверяется,
// что адресные мутации не обгоняют друг друга.
type blockingGateway struct {
	*gateway.MockService
	mu      sync.Mutex
	gate    chan struct{}
	blocked bool
	order   []string
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{
		MockService: gateway.NewMockService(),
		gate:        make(chan struct{}),
	}
}

func (g *blockingGateway) record(op string) {
	g.mu.Lock()
	g.order = append(g.order, op)
	g.mu.Unlock()
}

func (g *blockingGateway) callOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

func (g *blockingGateway) CreateAddress(ctx context.Context, payload domain.AddressPayload) (domain.Address, error) {
	g.mu.Lock()
	first := !g.blocked
	g.blocked = true
	g.mu.Unlock()
	if first {
		<-g.gate
	}
	g.record("create")
	return g.MockService.CreateAddress(ctx, payload)
}

func (g *blockingGateway) UpdateAddress(ctx context.Context, id string, patch domain.AddressPatch) (domain.Address, error) {
	g.record("update")
	return g.MockService.UpdateAddress(ctx, id, patch)
}

func TestOrchestrator_AddressMutationsAreSerial(t *testing.T) {
	gw := newBlockingGateway()
	gw.SeedAddress(domain.Address{ID: "srv-7", City: "Delft"})

	f := &fixture{
		dispatcher: store.NewDispatcher(nil),
		gw:         gw.MockService,
		cart:       cart.NewMemoryCart(),
		storage:    memory.NewSessionStorage(),
	}
	f.addresses = store.NewAddressStore(f.dispatcher, nil)
	f.checkout = store.NewCheckoutStore(f.dispatcher, nil)
	f.startOrchestrator(t, gw)

	f.dispatcher.Dispatch(store.AddressCreateRequested{TempID: domain.NewTempID()})
	city := "Rotterdam"
	f.dispatcher.Dispatch(store.AddressUpdateRequested{ID: "srv-7", Patch: domain.AddressPatch{City: &city}})

	// Пока первый вызов висит, второй не должен начаться.
	time.Sleep(50 * time.Millisecond)
	if got := gw.callOrder(); len(got) != 0 {
		t.Fatalf("no call may complete while the first is blocked, got %v", got)
	}

	close(gw.gate)

	waitFor(t, func() bool { return len(gw.callOrder()) == 2 }, "both mutations must eventually run")
	if got := gw.callOrder(); got[0] != "create" || got[1] != "update" {
		t.Fatalf("mutations must run in dispatch order, got %v", got)
	}
}

// latestGateway: медленный ответ для одного адреса, мгновенный для другого.
type latestGateway struct {
	*gateway.MockService
	slowGate chan struct{}
}

func (g *latestGateway) GetShippingMethods(ctx context.Context, f domain.ShippingMethodFilter) ([]domain.ShippingMethod, error) {
	if f.AddressID == "slow" {
		<-g.slowGate
		return []domain.ShippingMethod{{ID: "stale-method"}}, nil
	}
	return []domain.ShippingMethod{{ID: "fresh-method"}}, nil
}

// Для загрузки способов доставки побеждает последний запрос: результат
// устаревшего отбрасывается, даже если он пришёл позже.
func TestOrchestrator_ShippingMethodsSwitchToLatest(t *testing.T) {
	gw := &latestGateway{MockService: gateway.NewMockService(), slowGate: make(chan struct{})}

	f := &fixture{
		dispatcher: store.NewDispatcher(nil),
		gw:         gw.MockService,
		cart:       cart.NewMemoryCart(),
		storage:    memory.NewSessionStorage(),
	}
	f.addresses = store.NewAddressStore(f.dispatcher, nil)
	f.checkout = store.NewCheckoutStore(f.dispatcher, nil)
	f.startOrchestrator(t, gw)

	f.dispatcher.Dispatch(store.ShippingMethodsLoadRequested{Filter: domain.ShippingMethodFilter{AddressID: "slow"}})
	f.dispatcher.Dispatch(store.ShippingMethodsLoadRequested{Filter: domain.ShippingMethodFilter{AddressID: "fast"}})

	waitFor(t, func() bool {
		m := f.checkout.State().ShippingMethods
		return len(m) == 1 && m[0].ID == "fresh-method"
	}, "fresh result never arrived")

	// Отпускаем устаревший запрос: его результат не должен затереть свежий.
	close(gw.slowGate)
	time.Sleep(50 * time.Millisecond)

	m := f.checkout.State().ShippingMethods
	if len(m) != 1 || m[0].ID != "fresh-method" {
		t.Fatalf("stale result must be dropped, got %v", m)
	}
}

// Неполная команда заказа прерывается синхронно: к моменту возврата Dispatch
// ошибка уже в состоянии, а шлюз не вызывался.
func TestOrchestrator_SubmitOrderAbortsWithoutNetworkCall(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(store.OrderSubmitRequested{})

	st := f.checkout.State()
	if st.IsSubmittingOrder {
		t.Fatal("aborted submission must clear the submitting flag synchronously")
	}
	if st.Error != "checkout.submit_order: order data incomplete" {
		t.Fatalf("unexpected abort message: %q", st.Error)
	}
	if f.gw.SubmitCalls() != 0 {
		t.Fatal("incomplete command must never reach the gateway")
	}
}

func (f *fixture) prepareSubmittableOrder() {
	f.cart.SetItems([]domain.CartItem{{ProductID: "p1", Quantity: 2}})
	f.dispatcher.Dispatch(store.ShippingAddressSet{Address: &domain.Address{ID: "srv-1", City: "Delft"}})
	f.dispatcher.Dispatch(store.ShippingMethodSet{ID: "standard"})
	f.dispatcher.Dispatch(store.PaymentMethodSet{ID: "ideal-rabobank"})
	f.dispatcher.Dispatch(store.StepNavigated{Step: domain.CheckoutStepReview})
}

func TestOrchestrator_SubmitOrderSuccessResetsFlow(t *testing.T) {
	f := newFixture(t)
	f.prepareSubmittableOrder()

	if !f.hasSnapshot(t) {
		t.Fatal("snapshot must exist before submission")
	}

	f.dispatcher.Dispatch(store.OrderSubmitRequested{})

	waitFor(t, func() bool {
		return f.checkout.State().ActiveStep == domain.CheckoutStepShipping
	}, "successful submission must reset the flow")

	if f.gw.SubmitCalls() != 1 {
		t.Fatalf("expected exactly one gateway call, got %d", f.gw.SubmitCalls())
	}
	if f.hasSnapshot(t) {
		t.Fatal("snapshot must be cleared after a successful order")
	}
}

func TestOrchestrator_SubmitOrderGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.prepareSubmittableOrder()
	f.gw.SubmitErr = domain.ErrGatewayUnavailable

	f.dispatcher.Dispatch(store.OrderSubmitRequested{})

	waitFor(t, func() bool {
		return f.checkout.State().Error != ""
	}, "gateway failure must surface in state")

	st := f.checkout.State()
	if st.Error != "checkout.submit_order: failed to submit order" {
		t.Fatalf("unexpected failure message: %q", st.Error)
	}
	if st.ActiveStep != domain.CheckoutStepReview {
		t.Fatal("failed submission must keep the user on the review step")
	}
	if st.ShippingAddress == nil {
		t.Fatal("failed submission must not discard collected data")
	}
}

type recordingInvalidator struct {
	mu     sync.Mutex
	reason error
}

func (r *recordingInvalidator) InvalidateSession(reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reason = reason
}

func (r *recordingInvalidator) invalidated() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

func TestOrchestrator_UnauthorizedInvalidatesSession(t *testing.T) {
	inv := &recordingInvalidator{}
	f := newFixture(t, WithInvalidator(inv))
	f.gw.GetAddressesErr = domain.ErrUnauthorized

	f.dispatcher.Dispatch(store.AddressesLoadRequested{})

	waitFor(t, func() bool { return inv.invalidated() != nil }, "unauthorized error must invalidate the session")

	if !errors.Is(inv.invalidated(), domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized cause, got %v", inv.invalidated())
	}
	var opErr *domain.OperationError
	if !errors.As(inv.invalidated(), &opErr) || opErr.Op != domain.OpLoadAddresses {
		t.Fatalf("invalidation reason must carry the operation tag, got %v", inv.invalidated())
	}
}

// Снапшот пишется только после зафиксированных решений пользователя;
// транзитные события его не трогают.
func TestOrchestrator_SnapshotPersistencePolicy(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.Dispatch(store.ShippingMethodsLoadRequested{Filter: domain.ShippingMethodFilter{AddressID: "srv-1"}})
	waitFor(t, func() bool { return len(f.checkout.State().ShippingMethods) > 0 }, "methods never loaded")
	if f.hasSnapshot(t) {
		t.Fatal("loading shipping methods must not persist a snapshot")
	}

	f.dispatcher.Dispatch(store.PaymentMethodSet{ID: "ideal-rabobank"})
	if !f.hasSnapshot(t) {
		t.Fatal("setting a payment method must persist a snapshot")
	}

	f.dispatcher.Dispatch(store.FlowReset{})
	if f.hasSnapshot(t) {
		t.Fatal("resetting the flow must clear the snapshot")
	}
}

// Новая сессия поверх того же хранилища продолжает с места остановки.
func TestOrchestrator_BootRehydratesAcrossSessions(t *testing.T) {
	first := newFixture(t)
	first.dispatcher.Dispatch(store.ShippingAddressSet{Address: &domain.Address{ID: "srv-1", City: "Delft"}})
	first.dispatcher.Dispatch(store.PaymentMethodSet{ID: "ideal-rabobank"})
	first.dispatcher.Dispatch(store.StepNavigated{Step: domain.CheckoutStepReview})

	second := &fixture{
		dispatcher: store.NewDispatcher(nil),
		gw:         gateway.NewMockService(),
		cart:       cart.NewMemoryCart(),
		storage:    first.storage, // общее хранилище — та же браузерная сессия
	}
	second.addresses = store.NewAddressStore(second.dispatcher, nil)
	second.checkout = store.NewCheckoutStore(second.dispatcher, nil)
	second.startOrchestrator(t, second.gw)
	second.orch.Boot()

	st := second.checkout.State()
	if st.ActiveStep != domain.CheckoutStepReview {
		t.Fatalf("expected rehydrated step review, got %s", st.ActiveStep)
	}
	if st.ShippingAddress == nil || st.ShippingAddress.ID != "srv-1" {
		t.Fatal("shipping address must be rehydrated")
	}
	if st.PaymentMethodID != "ideal-rabobank" {
		t.Fatal("payment method must be rehydrated")
	}
	if !st.CanProceedToReview() {
		t.Fatal("completed steps must be rehydrated")
	}
}

// Снапшот без адреса доставки не затирает свежую сессию.
func TestOrchestrator_BootIgnoresEmptySnapshot(t *testing.T) {
	f := newFixture(t)

	adapter := session.NewAdapter(f.storage, nil)
	if err := adapter.Save(store.CheckoutSnapshot{
		ActiveStep:      domain.CheckoutStepPayment,
		PaymentMethodID: "ideal-rabobank",
	}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	f.orch.Boot()

	st := f.checkout.State()
	if st.ActiveStep != domain.CheckoutStepShipping {
		t.Fatal("snapshot without a shipping address must not be rehydrated")
	}
	if st.PaymentMethodID != "" {
		t.Fatal("empty snapshot must leave the fresh session untouched")
	}
}

func TestOrchestrator_BootWithEmptyStorage(t *testing.T) {
	f := newFixture(t)
	f.orch.Boot()

	if got := f.checkout.State().ActiveStep; got != domain.CheckoutStepShipping {
		t.Fatalf("boot without a snapshot must keep the initial state, got %s", got)
	}
}

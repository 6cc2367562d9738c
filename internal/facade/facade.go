package facade

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/store"
)

// ViewModel — единственная читаемая поверхность для UI: производные значения
// уже вычислены, внутренности stores наружу не выдаются.
type ViewModel struct {
	ActiveStep               domain.CheckoutStep
	CompletedSteps           []domain.CheckoutStep
	CanProceedToPayment      bool
	CanProceedToReview       bool
	ShippingAddress          *domain.Address
	BillingAddress           *domain.Address
	SelectedShippingMethodID string
	PaymentMethodID          string
	ShippingMethods          []domain.ShippingMethod
	IsLoadingShippingMethods bool
	IsSubmittingOrder        bool
	CheckoutError            string

	Addresses          []domain.Address
	IsLoadingAddresses bool
	AddressError       string
}

// Facade — единая точка чтения и записи для UI. Интеншены тонкие: каждый
// транслирует параметры ровно в одно событие, вся политика живёт в
// reducers и слое оркестрации.
type Facade struct {
	dispatcher *store.Dispatcher
	addresses  *store.AddressStore
	checkout   *store.CheckoutStore
	logger     *log.Entry

	memoMu sync.Mutex
	memo   memoizedView
}

type memoizedView struct {
	vm              ViewModel
	addressVersion  uint64
	checkoutVersion uint64
	valid           bool
}

// New создаёт фасад над stores. Экземпляр внедряется явно: глобального
// синглтона нет.
func New(dispatcher *store.Dispatcher, addresses *store.AddressStore, checkout *store.CheckoutStore, logger *log.Entry) *Facade {
	if logger == nil {
		logger = log.New().WithField("component", "facade")
	}
	return &Facade{
		dispatcher: dispatcher,
		addresses:  addresses,
		checkout:   checkout,
		logger:     logger,
	}
}

// ViewModel возвращает мемоизированную модель представления. Пересборка
// выполняется только если изменился хотя бы один из входных stores.
func (f *Facade) ViewModel() ViewModel {
	f.memoMu.Lock()
	defer f.memoMu.Unlock()

	addrV := f.addresses.Version()
	ckV := f.checkout.Version()
	if f.memo.valid && f.memo.addressVersion == addrV && f.memo.checkoutVersion == ckV {
		return f.memo.vm
	}

	checkoutState := f.checkout.State()
	addressState := f.addresses.State()

	addresses := make([]domain.Address, 0, len(addressState.Entities))
	for _, a := range addressState.Entities {
		addresses = append(addresses, a)
	}
	sort.Slice(addresses, func(i, j int) bool {
		if addresses[i].IsDefaultShipping != addresses[j].IsDefaultShipping {
			return addresses[i].IsDefaultShipping
		}
		return addresses[i].ID < addresses[j].ID
	})

	vm := ViewModel{
		ActiveStep:               checkoutState.ActiveStep,
		CompletedSteps:           checkoutState.CompletedSteps,
		CanProceedToPayment:      checkoutState.CanProceedToPayment(),
		CanProceedToReview:       checkoutState.CanProceedToReview(),
		ShippingAddress:          checkoutState.ShippingAddress,
		BillingAddress:           checkoutState.BillingAddress,
		SelectedShippingMethodID: checkoutState.SelectedShippingMethodID,
		PaymentMethodID:          checkoutState.PaymentMethodID,
		ShippingMethods:          checkoutState.ShippingMethods,
		IsLoadingShippingMethods: checkoutState.IsLoadingShippingMethods,
		IsSubmittingOrder:        checkoutState.IsSubmittingOrder,
		CheckoutError:            checkoutState.Error,
		Addresses:                addresses,
		IsLoadingAddresses:       addressState.IsLoading,
		AddressError:             addressState.Error,
	}

	f.memo = memoizedView{
		vm:              vm,
		addressVersion:  addrV,
		checkoutVersion: ckV,
		valid:           true,
	}
	return vm
}

// InitializeFlow начинает новый checkout с чистого состояния.
func (f *Facade) InitializeFlow() {
	f.dispatcher.Dispatch(store.FlowInitialized{})
}

// ResetFlow полностью сбрасывает checkout и его снапшот.
func (f *Facade) ResetFlow() {
	f.dispatcher.Dispatch(store.FlowReset{})
}

// GoToStep переводит пользователя на шаг. Проверка доступности шага —
// через CanProceedTo* в ViewModel; сам переход безусловный.
func (f *Facade) GoToStep(step domain.CheckoutStep) {
	f.dispatcher.Dispatch(store.StepNavigated{Step: step})
}

// SetShippingAddress фиксирует адрес доставки.
func (f *Facade) SetShippingAddress(address *domain.Address) {
	f.dispatcher.Dispatch(store.ShippingAddressSet{Address: address})
}

// SetBillingAddress фиксирует платёжный адрес.
func (f *Facade) SetBillingAddress(address *domain.Address) {
	f.dispatcher.Dispatch(store.BillingAddressSet{Address: address})
}

// SubmitShippingStep отправляет составную команду шага shipping.
func (f *Facade) SubmitShippingStep(address domain.Address, saveAddress, shouldNavigate bool) {
	f.dispatcher.Dispatch(store.ShippingStepSubmitted{
		Address:        address,
		SaveAddress:    saveAddress,
		ShouldNavigate: shouldNavigate,
	})
}

// SetPaymentMethod фиксирует способ оплаты.
func (f *Facade) SetPaymentMethod(id string) {
	f.dispatcher.Dispatch(store.PaymentMethodSet{ID: id})
}

// SetShippingMethod фиксирует способ доставки.
func (f *Facade) SetShippingMethod(id string) {
	f.dispatcher.Dispatch(store.ShippingMethodSet{ID: id})
}

// LoadShippingMethods запрашивает способы доставки для адреса.
func (f *Facade) LoadShippingMethods(addressID string) {
	f.dispatcher.Dispatch(store.ShippingMethodsLoadRequested{
		Filter: domain.ShippingMethodFilter{AddressID: addressID},
	})
}

// SubmitOrder запускает отправку заказа. Команда собирается слоем
// оркестрации из актуального состояния, параметров у интеншена нет.
func (f *Facade) SubmitOrder() {
	f.dispatcher.Dispatch(store.OrderSubmitRequested{})
}

// LoadAddresses запрашивает полную загрузку адресов.
func (f *Facade) LoadAddresses() {
	f.dispatcher.Dispatch(store.AddressesLoadRequested{})
}

// CreateAddress оптимистично создаёт адрес и возвращает его временный id.
func (f *Facade) CreateAddress(payload domain.AddressPayload) string {
	tempID := domain.NewTempID()
	f.dispatcher.Dispatch(store.AddressCreateRequested{TempID: tempID, Payload: payload})
	return tempID
}

// UpdateAddress отправляет частичное обновление адреса.
func (f *Facade) UpdateAddress(id string, patch domain.AddressPatch) {
	f.dispatcher.Dispatch(store.AddressUpdateRequested{ID: id, Patch: patch})
}

// DeleteAddress оптимистично удаляет адрес.
func (f *Facade) DeleteAddress(id string) {
	f.dispatcher.Dispatch(store.AddressDeleteRequested{ID: id})
}

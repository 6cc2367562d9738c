package store

import "github.com/tweakstories/storefront-core/internal/domain"

// Имена событий. Формат group.action совпадает с тем, что уходит в логи
// и публикуется наружу.
const (
	EventAddressesLoadRequested = "addresses.load.requested"
	EventAddressesLoaded        = "addresses.load.succeeded"
	EventAddressesLoadFailed    = "addresses.load.failed"
	EventAddressCreateRequested = "addresses.create.requested"
	EventAddressCreateSucceeded = "addresses.create.succeeded"
	EventAddressCreateFailed    = "addresses.create.failed"
	EventAddressUpdateRequested = "addresses.update.requested"
	EventAddressUpdateSucceeded = "addresses.update.succeeded"
	EventAddressUpdateFailed    = "addresses.update.failed"
	EventAddressDeleteRequested = "addresses.delete.requested"
	EventAddressDeleteSucceeded = "addresses.delete.succeeded"
	EventAddressDeleteFailed    = "addresses.delete.failed"

	EventFlowInitialized              = "checkout.flow.initialized"
	EventFlowReset                    = "checkout.flow.reset"
	EventStateRehydrated              = "checkout.state.rehydrated"
	EventStepNavigated                = "checkout.step.navigated"
	EventShippingAddressSet           = "checkout.shipping_address.set"
	EventBillingAddressSet            = "checkout.billing_address.set"
	EventShippingStepSubmitted        = "checkout.shipping_step.submitted"
	EventPaymentMethodSet             = "checkout.payment_method.set"
	EventShippingMethodSet            = "checkout.shipping_method.set"
	EventShippingMethodsLoadRequested = "checkout.shipping_methods.requested"
	EventShippingMethodsLoaded        = "checkout.shipping_methods.succeeded"
	EventShippingMethodsLoadFailed    = "checkout.shipping_methods.failed"
	EventOrderSubmitRequested         = "checkout.order.requested"
	EventOrderSubmitSucceeded         = "checkout.order.succeeded"
	EventOrderSubmitFailed            = "checkout.order.failed"
)

// --- события address store ---

// AddressesLoadRequested запрашивает полную перезагрузку коллекции адресов.
type AddressesLoadRequested struct{}

func (AddressesLoadRequested) EventType() string { return EventAddressesLoadRequested }

// AddressesLoaded заменяет коллекцию целиком (set-all).
type AddressesLoaded struct {
	Addresses []domain.Address
}

func (AddressesLoaded) EventType() string { return EventAddressesLoaded }

// AddressesLoadFailed фиксирует ошибку загрузки коллекции.
type AddressesLoadFailed struct {
	Message string
}

func (AddressesLoadFailed) EventType() string { return EventAddressesLoadFailed }

// AddressCreateRequested — оптимистичное создание адреса под временным id.
type AddressCreateRequested struct {
	TempID  string
	Payload domain.AddressPayload
}

func (AddressCreateRequested) EventType() string { return EventAddressCreateRequested }

// AddressCreateSucceeded атомарно заменяет временную запись серверной.
type AddressCreateSucceeded struct {
	TempID  string
	Address domain.Address
}

func (AddressCreateSucceeded) EventType() string { return EventAddressCreateSucceeded }

// AddressCreateFailed помечает временную запись ошибкой; запись не исчезает.
type AddressCreateFailed struct {
	TempID  string
	Message string
}

func (AddressCreateFailed) EventType() string { return EventAddressCreateFailed }

// AddressUpdateRequested помечает запись pending; поля не применяются
// до подтверждения сервера.
type AddressUpdateRequested struct {
	ID    string
	Patch domain.AddressPatch
}

func (AddressUpdateRequested) EventType() string { return EventAddressUpdateRequested }

// AddressUpdateSucceeded вливает подтверждённые сервером поля.
type AddressUpdateSucceeded struct {
	ID      string
	Address domain.Address
}

func (AddressUpdateSucceeded) EventType() string { return EventAddressUpdateSucceeded }

// AddressUpdateFailed откатывает статус записи; значения полей не тронуты.
type AddressUpdateFailed struct {
	ID      string
	Message string
}

func (AddressUpdateFailed) EventType() string { return EventAddressUpdateFailed }

// AddressDeleteRequested оптимистично помечает запись на удаление.
type AddressDeleteRequested struct {
	ID string
}

func (AddressDeleteRequested) EventType() string { return EventAddressDeleteRequested }

// AddressDeleteSucceeded окончательно убирает запись.
type AddressDeleteSucceeded struct {
	ID string
}

func (AddressDeleteSucceeded) EventType() string { return EventAddressDeleteSucceeded }

// AddressDeleteFailed возвращает запись в состояние до удаления.
type AddressDeleteFailed struct {
	ID      string
	Message string
}

func (AddressDeleteFailed) EventType() string { return EventAddressDeleteFailed }

// --- события checkout store ---

// FlowInitialized сбрасывает checkout в начальное состояние при старте flow.
type FlowInitialized struct{}

func (FlowInitialized) EventType() string { return EventFlowInitialized }

// FlowReset полностью сбрасывает checkout.
type FlowReset struct{}

func (FlowReset) EventType() string { return EventFlowReset }

// StateRehydrated вливает персистентный снапшот поверх текущего состояния.
// Используется только при старте приложения.
type StateRehydrated struct {
	Snapshot CheckoutSnapshot
}

func (StateRehydrated) EventType() string { return EventStateRehydrated }

// StepNavigated безусловно меняет активный шаг; гейтинг — на стороне фасада.
type StepNavigated struct {
	Step domain.CheckoutStep
}

func (StepNavigated) EventType() string { return EventStepNavigated }

// ShippingAddressSet фиксирует адрес доставки и завершает шаг shipping.
type ShippingAddressSet struct {
	Address *domain.Address
}

func (ShippingAddressSet) EventType() string { return EventShippingAddressSet }

// BillingAddressSet фиксирует платёжный адрес.
type BillingAddressSet struct {
	Address *domain.Address
}

func (BillingAddressSet) EventType() string { return EventBillingAddressSet }

// ShippingStepSubmitted — составная команда шага shipping. Редьюсеры её
// игнорируют: слой оркестрации разворачивает её в канонические события.
type ShippingStepSubmitted struct {
	Address        domain.Address
	SaveAddress    bool
	ShouldNavigate bool
}

func (ShippingStepSubmitted) EventType() string { return EventShippingStepSubmitted }

// PaymentMethodSet фиксирует способ оплаты. Защитно завершает и shipping:
// payment не может считаться завершённым без shipping.
type PaymentMethodSet struct {
	ID string
}

func (PaymentMethodSet) EventType() string { return EventPaymentMethodSet }

// ShippingMethodSet фиксирует выбранный способ доставки.
type ShippingMethodSet struct {
	ID string
}

func (ShippingMethodSet) EventType() string { return EventShippingMethodSet }

// ShippingMethodsLoadRequested запускает загрузку способов доставки.
type ShippingMethodsLoadRequested struct {
	Filter domain.ShippingMethodFilter
}

func (ShippingMethodsLoadRequested) EventType() string { return EventShippingMethodsLoadRequested }

// ShippingMethodsLoaded заменяет список способов доставки целиком.
type ShippingMethodsLoaded struct {
	Methods []domain.ShippingMethod
}

func (ShippingMethodsLoaded) EventType() string { return EventShippingMethodsLoaded }

// ShippingMethodsLoadFailed фиксирует ошибку; ранее загруженный список
// остаётся видимым.
type ShippingMethodsLoadFailed struct {
	Message string
}

func (ShippingMethodsLoadFailed) EventType() string { return EventShippingMethodsLoadFailed }

// OrderSubmitRequested запускает отправку заказа. Payload отсутствует:
// команда собирается из текущего состояния в момент обработки.
type OrderSubmitRequested struct{}

func (OrderSubmitRequested) EventType() string { return EventOrderSubmitRequested }

// OrderSubmitSucceeded завершает flow; checkout сбрасывается в начальное состояние.
type OrderSubmitSucceeded struct {
	Order domain.Order
}

func (OrderSubmitSucceeded) EventType() string { return EventOrderSubmitSucceeded }

// OrderSubmitFailed фиксирует ошибку отправки; активный шаг не меняется.
type OrderSubmitFailed struct {
	Message string
}

func (OrderSubmitFailed) EventType() string { return EventOrderSubmitFailed }

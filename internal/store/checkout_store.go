package store

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// CheckoutState — состояние процесса оформления заказа.
type CheckoutState struct {
	ActiveStep               domain.CheckoutStep
	CompletedSteps           []domain.CheckoutStep
	ShippingAddress          *domain.Address
	BillingAddress           *domain.Address
	SelectedShippingMethodID string
	PaymentMethodID          string
	ShippingMethods          []domain.ShippingMethod
	IsLoadingShippingMethods bool
	IsSubmittingOrder        bool
	Error                    string
}

// HasCompleted сообщает, помечен ли шаг завершённым.
func (s CheckoutState) HasCompleted(step domain.CheckoutStep) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// CanProceedToPayment — производное значение: shipping завершён.
func (s CheckoutState) CanProceedToPayment() bool {
	return s.HasCompleted(domain.CheckoutStepShipping)
}

// CanProceedToReview — производное значение: shipping и payment завершены.
func (s CheckoutState) CanProceedToReview() bool {
	return s.HasCompleted(domain.CheckoutStepShipping) && s.HasCompleted(domain.CheckoutStepPayment)
}

func initialCheckoutState() CheckoutState {
	return CheckoutState{ActiveStep: domain.CheckoutStepShipping}
}

// CheckoutSnapshot — сериализуемая форма CheckoutState для session storage.
type CheckoutSnapshot struct {
	ActiveStep               domain.CheckoutStep     `json:"activeStep"`
	CompletedSteps           []domain.CheckoutStep   `json:"completedSteps"`
	ShippingAddress          *domain.Address         `json:"shippingAddress"`
	BillingAddress           *domain.Address         `json:"billingAddress"`
	PaymentMethodID          string                  `json:"paymentMethodId"`
	SelectedShippingMethodID string                  `json:"selectedShippingMethodId"`
	ShippingMethods          []domain.ShippingMethod `json:"shippingMethods"`
	IsLoadingShippingMethods bool                    `json:"isLoadingShippingMethods"`
	IsSubmittingOrder        bool                    `json:"isSubmittingOrder"`
	Error                    string                  `json:"error"`
}

// CheckoutStore — единственный экземпляр машины состояний checkout.
type CheckoutStore struct {
	mu      sync.RWMutex
	state   CheckoutState
	version uint64
	logger  *log.Entry
}

// NewCheckoutStore создаёт store в начальном состоянии и подключает reducer.
func NewCheckoutStore(d *Dispatcher, logger *log.Entry) *CheckoutStore {
	if logger == nil {
		logger = log.New().WithField("component", "checkout-store")
	}
	s := &CheckoutStore{
		state:  initialCheckoutState(),
		logger: logger,
	}
	d.RegisterReducer(s.reduce)
	return s
}

// State возвращает копию состояния.
func (s *CheckoutStore) State() CheckoutState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCheckoutState(s.state)
}

// Version возвращает счётчик изменений; используется фасадом для мемоизации.
func (s *CheckoutStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot возвращает сериализуемый снимок текущего состояния.
func (s *CheckoutStore) Snapshot() CheckoutSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := copyCheckoutState(s.state)
	return CheckoutSnapshot{
		ActiveStep:               st.ActiveStep,
		CompletedSteps:           st.CompletedSteps,
		ShippingAddress:          st.ShippingAddress,
		BillingAddress:           st.BillingAddress,
		PaymentMethodID:          st.PaymentMethodID,
		SelectedShippingMethodID: st.SelectedShippingMethodID,
		ShippingMethods:          st.ShippingMethods,
		IsLoadingShippingMethods: st.IsLoadingShippingMethods,
		IsSubmittingOrder:        st.IsSubmittingOrder,
		Error:                    st.Error,
	}
}

func (s *CheckoutStore) reduce(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case FlowInitialized, FlowReset:
		s.state = initialCheckoutState()

	case StateRehydrated:
		s.state = stateFromSnapshot(e.Snapshot)

	case StepNavigated:
		if !e.Step.Valid() {
			s.logger.WithField("step", string(e.Step)).Warn("navigation to unknown step ignored")
			return
		}
		s.state.ActiveStep = e.Step

	case ShippingAddressSet:
		s.state.ShippingAddress = copyAddress(e.Address)
		s.completeStep(domain.CheckoutStepShipping)

	case BillingAddressSet:
		s.state.BillingAddress = copyAddress(e.Address)

	case PaymentMethodSet:
		s.state.PaymentMethodID = e.ID
		// Payment не может быть завершён без shipping, каким бы путём
		// пользователь сюда ни попал.
		s.completeStep(domain.CheckoutStepShipping)
		s.completeStep(domain.CheckoutStepPayment)

	case ShippingMethodSet:
		s.state.SelectedShippingMethodID = e.ID

	case ShippingMethodsLoadRequested:
		s.state.IsLoadingShippingMethods = true
		s.state.Error = ""

	case ShippingMethodsLoaded:
		s.state.ShippingMethods = append([]domain.ShippingMethod(nil), e.Methods...)
		s.state.IsLoadingShippingMethods = false

	case ShippingMethodsLoadFailed:
		// Ранее загруженные методы остаются: UI волен показать их с ошибкой.
		s.state.IsLoadingShippingMethods = false
		s.state.Error = e.Message

	case OrderSubmitRequested:
		s.state.IsSubmittingOrder = true
		s.state.Error = ""

	case OrderSubmitSucceeded:
		s.state = initialCheckoutState()

	case OrderSubmitFailed:
		s.state.IsSubmittingOrder = false
		s.state.Error = e.Message

	default:
		return
	}

	s.version++
}

// completeStep добавляет шаг в CompletedSteps. Вызывается под mu.
// Набор растёт монотонно; сжимает его только полный сброс.
func (s *CheckoutStore) completeStep(step domain.CheckoutStep) {
	if s.state.HasCompleted(step) {
		return
	}
	s.state.CompletedSteps = append(s.state.CompletedSteps, step)
}

func stateFromSnapshot(snap CheckoutSnapshot) CheckoutState {
	st := CheckoutState{
		ActiveStep:               snap.ActiveStep,
		CompletedSteps:           append([]domain.CheckoutStep(nil), snap.CompletedSteps...),
		ShippingAddress:          copyAddress(snap.ShippingAddress),
		BillingAddress:           copyAddress(snap.BillingAddress),
		SelectedShippingMethodID: snap.SelectedShippingMethodID,
		PaymentMethodID:          snap.PaymentMethodID,
		ShippingMethods:          append([]domain.ShippingMethod(nil), snap.ShippingMethods...),
		IsLoadingShippingMethods: snap.IsLoadingShippingMethods,
		IsSubmittingOrder:        snap.IsSubmittingOrder,
		Error:                    snap.Error,
	}
	if !st.ActiveStep.Valid() {
		st.ActiveStep = domain.CheckoutStepShipping
	}
	return st
}

func copyCheckoutState(st CheckoutState) CheckoutState {
	st.CompletedSteps = append([]domain.CheckoutStep(nil), st.CompletedSteps...)
	st.ShippingMethods = append([]domain.ShippingMethod(nil), st.ShippingMethods...)
	st.ShippingAddress = copyAddress(st.ShippingAddress)
	st.BillingAddress = copyAddress(st.BillingAddress)
	return st
}

func copyAddress(a *domain.Address) *domain.Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// MockService — конфигурируемая заглушка StorefrontGateway для тестов и демо.
// Ошибки задаются по операциям; вызовы считаются.
type MockService struct {
	mu sync.Mutex

	addresses map[string]domain.Address
	methods   []domain.ShippingMethod
	nextID    int

	GetAddressesErr error
	CreateErr       error
	UpdateErr       error
	DeleteErr       error
	MethodsErr      error
	SubmitErr       error

	getAddressesCalls int
	createCalls       int
	updateCalls       int
	deleteCalls       int
	methodsCalls      int
	submitCalls       int
}

// NewMockService возвращает mock с успешным сценарием по умолчанию
// и двумя способами доставки.
func NewMockService() *MockService {
	return &MockService{
		addresses: make(map[string]domain.Address),
		methods: []domain.ShippingMethod{
			{ID: "standard", Name: "Standard", PriceMinor: 495, Currency: "EUR", EtaDays: 3},
			{ID: "express", Name: "Express", PriceMinor: 995, Currency: "EUR", EtaDays: 1},
		},
		nextID: 1,
	}
}

// SeedAddress кладёт адрес в серверное состояние mock.
func (m *MockService) SeedAddress(a domain.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[a.ID] = a
}

// SetMethods заменяет список способов доставки.
func (m *MockService) SetMethods(methods []domain.ShippingMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods = append([]domain.ShippingMethod(nil), methods...)
}

// Счётчики вызовов. Читаются под мьютексом: тесты опрашивают их, пока
// последовательный worker ещё работает.

func (m *MockService) GetAddressesCalls() int { return m.count(&m.getAddressesCalls) }
func (m *MockService) CreateCalls() int       { return m.count(&m.createCalls) }
func (m *MockService) UpdateCalls() int       { return m.count(&m.updateCalls) }
func (m *MockService) DeleteCalls() int       { return m.count(&m.deleteCalls) }
func (m *MockService) MethodsCalls() int      { return m.count(&m.methodsCalls) }
func (m *MockService) SubmitCalls() int       { return m.count(&m.submitCalls) }

func (m *MockService) count(c *int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *c
}

// GetShippingMethods возвращает настроенный список или ошибку.
func (m *MockService) GetShippingMethods(_ context.Context, _ domain.ShippingMethodFilter) ([]domain.ShippingMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methodsCalls++
	if m.MethodsErr != nil {
		return nil, m.MethodsErr
	}
	return append([]domain.ShippingMethod(nil), m.methods...), nil
}

// GetAddresses возвращает серверное состояние адресов.
func (m *MockService) GetAddresses(_ context.Context) ([]domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAddressesCalls++
	if m.GetAddressesErr != nil {
		return nil, m.GetAddressesErr
	}
	out := make([]domain.Address, 0, len(m.addresses))
	for _, a := range m.addresses {
		out = append(out, a)
	}
	return out, nil
}

// CreateAddress назначает серверный id и сохраняет запись.
func (m *MockService) CreateAddress(_ context.Context, payload domain.AddressPayload) (domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.CreateErr != nil {
		return domain.Address{}, m.CreateErr
	}

	now := time.Now().UTC()
	created := domain.Address{
		ID:                fmt.Sprintf("srv-%d", m.nextID),
		Street:            payload.Street,
		HouseNumber:       payload.HouseNumber,
		PostalCode:        payload.PostalCode,
		City:              payload.City,
		CountryCode:       payload.CountryCode,
		IsDefaultShipping: payload.IsDefaultShipping,
		IsDefaultBilling:  payload.IsDefaultBilling,
		SyncStatus:        domain.SyncStatusSynced,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.nextID++
	m.addresses[created.ID] = created
	return created, nil
}

// UpdateAddress применяет patch к серверной записи.
func (m *MockService) UpdateAddress(_ context.Context, id string, patch domain.AddressPatch) (domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.UpdateErr != nil {
		return domain.Address{}, m.UpdateErr
	}

	current, ok := m.addresses[id]
	if !ok {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	updated := patch.Apply(current)
	updated.UpdatedAt = time.Now().UTC()
	m.addresses[id] = updated
	return updated, nil
}

// DeleteAddress убирает серверную запись.
func (m *MockService) DeleteAddress(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.addresses[id]; !ok {
		return domain.ErrAddressNotFound
	}
	delete(m.addresses, id)
	return nil
}

// SubmitOrder возвращает подтверждение заказа.
func (m *MockService) SubmitOrder(_ context.Context, cmd domain.OrderCommand) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	if m.SubmitErr != nil {
		return domain.Order{}, m.SubmitErr
	}

	order := domain.Order{
		ID:        fmt.Sprintf("order-%d", m.nextID),
		Currency:  "EUR",
		CreatedAt: time.Now().UTC(),
	}
	m.nextID++
	for range cmd.Items {
		order.AmountMinor += 1000
	}
	return order, nil
}

var _ domain.StorefrontGateway = (*MockService)(nil)

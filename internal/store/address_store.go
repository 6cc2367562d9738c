package store

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// AddressState — нормализованная коллекция адресов с общими флагами загрузки.
type AddressState struct {
	Entities  map[string]domain.Address
	IsLoading bool
	Error     string
}

// AddressStore хранит адреса пользователя. Единственный путь записи — reducer,
// подключённый к Dispatcher; прямая мутация снаружи невозможна.
type AddressStore struct {
	mu    sync.RWMutex
	state AddressState
	// rollbacks хранит снимки записей, сделанные перед оптимистичной
	// мутацией. Откат восстанавливает именно прежнюю запись, а не дефолт.
	rollbacks map[string]domain.Address
	version   uint64
	logger    *log.Entry
}

// NewAddressStore создаёт пустой store и подключает его reducer к dispatcher.
func NewAddressStore(d *Dispatcher, logger *log.Entry) *AddressStore {
	if logger == nil {
		logger = log.New().WithField("component", "address-store")
	}
	s := &AddressStore{
		state: AddressState{
			Entities: make(map[string]domain.Address),
		},
		rollbacks: make(map[string]domain.Address),
		logger:    logger,
	}
	d.RegisterReducer(s.reduce)
	return s
}

// State возвращает копию состояния; мутации копии на store не влияют.
func (s *AddressStore) State() AddressState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make(map[string]domain.Address, len(s.state.Entities))
	for id, a := range s.state.Entities {
		entities[id] = a
	}
	return AddressState{
		Entities:  entities,
		IsLoading: s.state.IsLoading,
		Error:     s.state.Error,
	}
}

// Get возвращает запись по id.
func (s *AddressStore) Get(id string) (domain.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.state.Entities[id]
	return a, ok
}

// Version возвращает счётчик изменений; используется фасадом для мемоизации.
func (s *AddressStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *AddressStore) reduce(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case AddressesLoadRequested:
		s.state.IsLoading = true
		s.state.Error = ""

	case AddressesLoaded:
		entities := make(map[string]domain.Address, len(e.Addresses))
		for _, a := range e.Addresses {
			if a.SyncStatus == "" {
				a.SyncStatus = domain.SyncStatusSynced
			}
			entities[a.ID] = a
		}
		s.state.Entities = entities
		s.state.IsLoading = false
		s.state.Error = ""

	case AddressesLoadFailed:
		s.state.IsLoading = false
		s.state.Error = e.Message

	case AddressCreateRequested:
		s.state.Entities[e.TempID] = domain.Address{
			ID:                e.TempID,
			Street:            e.Payload.Street,
			HouseNumber:       e.Payload.HouseNumber,
			PostalCode:        e.Payload.PostalCode,
			City:              e.Payload.City,
			CountryCode:       e.Payload.CountryCode,
			IsDefaultShipping: e.Payload.IsDefaultShipping,
			IsDefaultBilling:  e.Payload.IsDefaultBilling,
			SyncStatus:        domain.SyncStatusPending,
		}

	case AddressCreateSucceeded:
		// Замена временного id серверным выполняется как remove+add внутри
		// одной редукции: временная и серверная записи не сосуществуют.
		delete(s.state.Entities, e.TempID)
		confirmed := e.Address
		confirmed.SyncStatus = domain.SyncStatusSynced
		confirmed.SyncError = ""
		s.state.Entities[confirmed.ID] = confirmed

	case AddressCreateFailed:
		// Запись с ошибкой остаётся видимой, чтобы пользователь мог
		// повторить или явно отбросить её.
		if a, ok := s.state.Entities[e.TempID]; ok {
			a.SyncStatus = domain.SyncStatusError
			a.SyncError = e.Message
			s.state.Entities[e.TempID] = a
		}

	case AddressUpdateRequested:
		a, ok := s.state.Entities[e.ID]
		if !ok {
			s.logger.WithField("address_id", e.ID).Warn("update requested for unknown address")
			return
		}
		s.rollbacks[e.ID] = a
		// Поля из patch не применяются до подтверждения сервера.
		a.SyncStatus = domain.SyncStatusPending
		s.state.Entities[e.ID] = a

	case AddressUpdateSucceeded:
		confirmed := e.Address
		confirmed.ID = e.ID
		confirmed.SyncStatus = domain.SyncStatusSynced
		confirmed.SyncError = ""
		s.state.Entities[e.ID] = confirmed
		delete(s.rollbacks, e.ID)

	case AddressUpdateFailed:
		if prev, ok := s.rollbacks[e.ID]; ok {
			prev.SyncError = e.Message
			s.state.Entities[e.ID] = prev
			delete(s.rollbacks, e.ID)
		} else if a, ok := s.state.Entities[e.ID]; ok {
			a.SyncStatus = domain.SyncStatusError
			a.SyncError = e.Message
			s.state.Entities[e.ID] = a
		}

	case AddressDeleteRequested:
		a, ok := s.state.Entities[e.ID]
		if !ok {
			s.logger.WithField("address_id", e.ID).Warn("delete requested for unknown address")
			return
		}
		s.rollbacks[e.ID] = a
		a.SyncStatus = domain.SyncStatusPendingDeletion
		s.state.Entities[e.ID] = a

	case AddressDeleteSucceeded:
		delete(s.state.Entities, e.ID)
		delete(s.rollbacks, e.ID)

	case AddressDeleteFailed:
		// Откат к снимку до удаления: запись снова видна с прежним статусом.
		if prev, ok := s.rollbacks[e.ID]; ok {
			prev.SyncError = e.Message
			s.state.Entities[e.ID] = prev
			delete(s.rollbacks, e.ID)
		}

	default:
		return
	}

	s.version++
}

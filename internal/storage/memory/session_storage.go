package memory

import (
	"sync"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// sessionStorageInMemory — простая in-memory реализация SessionStorage.
// Время жизни совпадает со временем жизни процесса, что для session scope
// и требуется.
type sessionStorageInMemory struct {
	mu    sync.RWMutex
	items map[domain.StorageScope]map[string][]byte
}

// NewSessionStorage возвращает in-memory хранилище для локальной разработки и тестов.
func NewSessionStorage() domain.SessionStorage {
	return &sessionStorageInMemory{
		items: make(map[domain.StorageScope]map[string][]byte),
	}
}

// GetItem возвращает значение по ключу в пределах scope.
func (s *sessionStorageInMemory) GetItem(key string, scope domain.StorageScope) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scoped, ok := s.items[scope]
	if !ok {
		return nil, false, nil
	}
	value, ok := scoped[key]
	if !ok {
		return nil, false, nil
	}
	// Отдаём копию, чтобы избежать непредсказуемых мутаций извне.
	return append([]byte(nil), value...), true, nil
}

// SetItem записывает значение по ключу в пределах scope.
func (s *sessionStorageInMemory) SetItem(key string, value []byte, scope domain.StorageScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scoped, ok := s.items[scope]
	if !ok {
		scoped = make(map[string][]byte)
		s.items[scope] = scoped
	}
	scoped[key] = append([]byte(nil), value...)
	return nil
}

// RemoveItem удаляет запись; отсутствие записи не считается ошибкой.
func (s *sessionStorageInMemory) RemoveItem(key string, scope domain.StorageScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scoped, ok := s.items[scope]; ok {
		delete(scoped, key)
	}
	return nil
}

var _ domain.SessionStorage = (*sessionStorageInMemory)(nil)

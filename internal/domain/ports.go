package domain

import "context"

// StorefrontGateway описывает взаимодействие с бекендом витрины.
// Конкретный транспорт вне ядра; все методы могут вернуть ErrUnauthorized.
type StorefrontGateway interface {
	// GetShippingMethods возвращает доступные способы доставки для адреса.
	GetShippingMethods(ctx context.Context, filter ShippingMethodFilter) ([]ShippingMethod, error)
	// GetAddresses возвращает полный список адресов пользователя.
	GetAddresses(ctx context.Context) ([]Address, error)
	// CreateAddress сохраняет адрес и возвращает запись с серверным id.
	CreateAddress(ctx context.Context, payload AddressPayload) (Address, error)
	// UpdateAddress применяет частичное изменение и возвращает итоговую запись.
	UpdateAddress(ctx context.Context, id string, patch AddressPatch) (Address, error)
	// DeleteAddress удаляет адрес по серверному id.
	DeleteAddress(ctx context.Context, id string) error
	// SubmitOrder создаёт заказ из полностью собранной команды.
	SubmitOrder(ctx context.Context, cmd OrderCommand) (Order, error)
}

// CartReader отдаёт текущие позиции корзины. Ядро корзину не мутирует.
type CartReader interface {
	Items() []CartItem
}

// StorageScope различает время жизни записей в хранилище.
type StorageScope string

const (
	// StorageScopeSession — данные живут в пределах одной сессии.
	StorageScopeSession StorageScope = "session"
	// StorageScopePersistent — данные переживают сессию. Ядром не используется,
	// но контракт хранилища шире одного потребителя.
	StorageScopePersistent StorageScope = "persistent"
)

// SessionStorage — узкий контракт хранилища снапшотов.
type SessionStorage interface {
	// GetItem возвращает значение по ключу; ok=false, если записи нет.
	GetItem(key string, scope StorageScope) (value []byte, ok bool, err error)
	// SetItem записывает значение по ключу.
	SetItem(key string, value []byte, scope StorageScope) error
	// RemoveItem удаляет запись; отсутствие записи не ошибка.
	RemoveItem(key string, scope StorageScope) error
}

// SessionInvalidator получает сигнал об отказе в авторизации.
// Реакция (повторный логин, редирект) — забота внешнего слоя.
type SessionInvalidator interface {
	InvalidateSession(reason error)
}

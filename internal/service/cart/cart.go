package cart

import (
	"sync"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// MemoryCart — in-memory реализация CartReader. Корзина принадлежит внешней
// подсистеме; ядро читает её синхронно в момент отправки заказа.
type MemoryCart struct {
	mu    sync.RWMutex
	items []domain.CartItem
}

// NewMemoryCart создаёт корзину с начальными позициями.
func NewMemoryCart(items ...domain.CartItem) *MemoryCart {
	return &MemoryCart{
		items: append([]domain.CartItem(nil), items...),
	}
}

// Items возвращает копию текущих позиций.
func (c *MemoryCart) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.CartItem(nil), c.items...)
}

// SetItems заменяет содержимое корзины.
func (c *MemoryCart) SetItems(items []domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]domain.CartItem(nil), items...)
}

var _ domain.CartReader = (*MemoryCart)(nil)

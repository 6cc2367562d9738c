package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tweakstories/storefront-core/internal/domain"
)

// sessionStorage — PostgreSQL-реализация SessionStorage. Снапшоты хранятся
// по (session_id, scope, key): серверная рендиция session storage, когда
// ядро живёт в backend-for-frontend и переживает перезапуск процесса.
type sessionStorage struct {
	db        *sql.DB
	sessionID string
}

// NewSessionStorage создаёт хранилище, привязанное к одной сессии.
func NewSessionStorage(store *Store, sessionID string) domain.SessionStorage {
	return &sessionStorage{db: store.DB(), sessionID: sessionID}
}

// GetItem возвращает значение по ключу в пределах scope.
func (s *sessionStorage) GetItem(key string, scope domain.StorageScope) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM session_items
		WHERE session_id = $1 AND scope = $2 AND item_key = $3
	`, s.sessionID, string(scope), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get session item: %w", err)
	}
	return value, true, nil
}

// SetItem записывает значение по ключу; существующая запись перезаписывается.
func (s *sessionStorage) SetItem(key string, value []byte, scope domain.StorageScope) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_items (session_id, scope, item_key, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, scope, item_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, s.sessionID, string(scope), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set session item: %w", err)
	}
	return nil
}

// RemoveItem удаляет запись; отсутствие записи не считается ошибкой.
func (s *sessionStorage) RemoveItem(key string, scope domain.StorageScope) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM session_items
		WHERE session_id = $1 AND scope = $2 AND item_key = $3
	`, s.sessionID, string(scope), key)
	if err != nil {
		return fmt.Errorf("remove session item: %w", err)
	}
	return nil
}

var _ domain.SessionStorage = (*sessionStorage)(nil)

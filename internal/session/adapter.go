package session

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/tweakstories/storefront-core/internal/domain"
	"github.com/tweakstories/storefront-core/internal/store"
)

// SnapshotKey — ключ снапшота checkout в session storage.
const SnapshotKey = "checkout.snapshot"

// snapshotVersion — версия схемы снапшота. Снапшот с другой версией
// отбрасывается целиком: миграций нет, сессия начинается заново.
const snapshotVersion = 1

// persistedSnapshot — обёртка с версией схемы вокруг сериализованного состояния.
type persistedSnapshot struct {
	Version  int                    `json:"version"`
	Snapshot store.CheckoutSnapshot `json:"snapshot"`
}

// Adapter читает и пишет снапшот checkout в session storage.
// Им владеет слой оркестрации; UI и фасад с ним не работают.
type Adapter struct {
	storage domain.SessionStorage
	logger  *log.Entry
}

// NewAdapter создаёт адаптер над хранилищем.
func NewAdapter(storage domain.SessionStorage, logger *log.Entry) *Adapter {
	if logger == nil {
		logger = log.New().WithField("component", "session-adapter")
	}
	return &Adapter{storage: storage, logger: logger}
}

// Save сериализует снапшот и записывает его в session scope.
func (a *Adapter) Save(snap store.CheckoutSnapshot) error {
	data, err := json.Marshal(persistedSnapshot{
		Version:  snapshotVersion,
		Snapshot: snap,
	})
	if err != nil {
		return fmt.Errorf("marshal checkout snapshot: %w", err)
	}
	if err := a.storage.SetItem(SnapshotKey, data, domain.StorageScopeSession); err != nil {
		return fmt.Errorf("persist checkout snapshot: %w", err)
	}
	return nil
}

// Load возвращает сохранённый снапшот. ok=false означает, что снапшота нет
// либо он отброшен: нечитаемые данные и чужая версия схемы удаляются из
// хранилища, сессия стартует с чистого состояния.
func (a *Adapter) Load() (store.CheckoutSnapshot, bool, error) {
	data, ok, err := a.storage.GetItem(SnapshotKey, domain.StorageScopeSession)
	if err != nil {
		return store.CheckoutSnapshot{}, false, fmt.Errorf("read checkout snapshot: %w", err)
	}
	if !ok {
		return store.CheckoutSnapshot{}, false, nil
	}

	var persisted persistedSnapshot
	if err := json.Unmarshal(data, &persisted); err != nil {
		a.logger.WithError(err).Warn("discarding unreadable checkout snapshot")
		a.discard()
		return store.CheckoutSnapshot{}, false, nil
	}
	if persisted.Version != snapshotVersion {
		a.logger.WithFields(log.Fields{
			"found":    persisted.Version,
			"expected": snapshotVersion,
		}).Warn("discarding checkout snapshot with foreign schema version")
		a.discard()
		return store.CheckoutSnapshot{}, false, domain.ErrSnapshotVersionMismatch
	}

	return persisted.Snapshot, true, nil
}

// Clear удаляет снапшот; вызывается после успешного заказа или сброса flow.
func (a *Adapter) Clear() error {
	if err := a.storage.RemoveItem(SnapshotKey, domain.StorageScopeSession); err != nil {
		return fmt.Errorf("clear checkout snapshot: %w", err)
	}
	return nil
}

func (a *Adapter) discard() {
	if err := a.storage.RemoveItem(SnapshotKey, domain.StorageScopeSession); err != nil {
		a.logger.WithError(err).Warn("failed to discard checkout snapshot")
	}
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SyncStatus описывает состояние синхронизации записи с бекендом.
type SyncStatus string

const (
	// SyncStatusSynced — запись подтверждена сервером и совпадает с ним.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending — локальная мутация отправлена, ответа ещё нет.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusPendingDeletion — запись оптимистично помечена на удаление.
	SyncStatusPendingDeletion SyncStatus = "pending_deletion"
	// SyncStatusError — последняя мутация записи завершилась ошибкой.
	SyncStatusError SyncStatus = "error"
)

// TempIDPrefix — префикс локальных временных идентификаторов.
// Серверные id никогда не начинаются с него, поэтому коллизии исключены.
const TempIDPrefix = "local-"

// IsTempID сообщает, является ли идентификатор локальным временным.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewTempID генерирует временный идентификатор для оптимистичного создания.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// Address — пользовательский адрес доставки/оплаты.
type Address struct {
	ID                string     `json:"id"`
	Street            string     `json:"street"`
	HouseNumber       string     `json:"houseNumber"`
	PostalCode        string     `json:"postalCode"`
	City              string     `json:"city"`
	CountryCode       string     `json:"countryCode"`
	IsDefaultShipping bool       `json:"isDefaultShipping"`
	IsDefaultBilling  bool       `json:"isDefaultBilling"`
	SyncStatus        SyncStatus `json:"syncStatus"`
	// SyncError хранит сообщение последней неудачной мутации (если была).
	SyncError string    `json:"syncError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddressPayload — данные для создания адреса; идентификатор назначает сервер.
type AddressPayload struct {
	Street            string `json:"street"`
	HouseNumber       string `json:"houseNumber"`
	PostalCode        string `json:"postalCode"`
	City              string `json:"city"`
	CountryCode       string `json:"countryCode"`
	IsDefaultShipping bool   `json:"isDefaultShipping"`
	IsDefaultBilling  bool   `json:"isDefaultBilling"`
}

// AddressPatch — частичное обновление адреса; nil-поля не трогаются.
type AddressPatch struct {
	Street            *string `json:"street,omitempty"`
	HouseNumber       *string `json:"houseNumber,omitempty"`
	PostalCode        *string `json:"postalCode,omitempty"`
	City              *string `json:"city,omitempty"`
	CountryCode       *string `json:"countryCode,omitempty"`
	IsDefaultShipping *bool   `json:"isDefaultShipping,omitempty"`
	IsDefaultBilling  *bool   `json:"isDefaultBilling,omitempty"`
}

// Apply накладывает patch на адрес и возвращает обновлённую копию.
func (p AddressPatch) Apply(a Address) Address {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.HouseNumber != nil {
		a.HouseNumber = *p.HouseNumber
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.CountryCode != nil {
		a.CountryCode = *p.CountryCode
	}
	if p.IsDefaultShipping != nil {
		a.IsDefaultShipping = *p.IsDefaultShipping
	}
	if p.IsDefaultBilling != nil {
		a.IsDefaultBilling = *p.IsDefaultBilling
	}
	return a
}

// ValidateInvariants проверяет базовые инварианты payload и возвращает список замечаний.
func (p AddressPayload) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(p.Street) == "" {
		errs = append(errs, ErrStreetRequired)
	}
	if strings.TrimSpace(p.HouseNumber) == "" {
		errs = append(errs, ErrHouseNumberRequired)
	}
	if strings.TrimSpace(p.PostalCode) == "" {
		errs = append(errs, ErrPostalCodeRequired)
	}
	if strings.TrimSpace(p.City) == "" {
		errs = append(errs, ErrCityRequired)
	}
	if strings.TrimSpace(p.CountryCode) == "" {
		errs = append(errs, ErrCountryRequired)
	}

	return errs
}

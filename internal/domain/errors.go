package domain

import "errors"

var (
	// Ошибка отсутствующей улицы в адресе.
	ErrStreetRequired = errors.New("street is required")
	// Ошибка отсутствующего номера дома.
	ErrHouseNumberRequired = errors.New("house number is required")
	// Ошибка отсутствующего почтового индекса.
	ErrPostalCodeRequired = errors.New("postal code is required")
	// Ошибка отсутствующего города.
	ErrCityRequired = errors.New("city is required")
	// Ошибка отсутствующего кода страны.
	ErrCountryRequired = errors.New("country code is required")
	// Ошибка пустой корзины при отправке заказа.
	ErrCartEmpty = errors.New("cart must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка отсутствующего адреса доставки в команде заказа.
	ErrShippingAddressRequired = errors.New("shipping address is required")
	// Ошибка отсутствующего способа доставки в команде заказа.
	ErrShippingMethodRequired = errors.New("shipping method is required")
	// Ошибка отсутствующего способа оплаты в команде заказа.
	ErrPaymentMethodRequired = errors.New("payment method is required")
	// ErrAddressNotFound возвращается, если адрес не найден в store.
	ErrAddressNotFound = errors.New("address not found")
	// ErrUnauthorized — распознаваемый отказ в авторизации от бекенда;
	// поднимается наверх и инвалидирует сессию.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGatewayUnavailable — временная недоступность бекенда.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrOrderIncomplete — локальная ошибка precondition-проверки команды заказа.
	ErrOrderIncomplete = errors.New("order command is incomplete")
	// ErrSnapshotVersionMismatch — персистентный снапшот другой схемы; отбрасывается.
	ErrSnapshotVersionMismatch = errors.New("snapshot version mismatch")
)

// IsUnauthorized проверяет, является ли ошибка отказом в авторизации.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidation проверяет, является ли ошибка локальной precondition-ошибкой.
func IsValidation(err error) bool {
	return errors.Is(err, ErrOrderIncomplete)
}

// Operation помечает подсистему, в которой произошла ошибка. Тег попадает
// в error-поле соответствующего слайса состояния и в логи.
type Operation string

const (
	OpLoadAddresses       Operation = "addresses.load"
	OpCreateAddress       Operation = "addresses.create"
	OpUpdateAddress       Operation = "addresses.update"
	OpDeleteAddress       Operation = "addresses.delete"
	OpLoadShippingMethods Operation = "checkout.shipping_methods"
	OpSubmitOrder         Operation = "checkout.submit_order"
)

// OperationError связывает ошибку с подсистемой-источником.
type OperationError struct {
	Op  Operation
	Err error
}

// Error возвращает текст ошибки с тегом операции.
func (e *OperationError) Error() string {
	return string(e.Op) + ": " + e.Err.Error()
}

// Unwrap открывает вложенную ошибку для errors.Is/As.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// WrapOp оборачивает ошибку тегом операции; nil остаётся nil.
func WrapOp(op Operation, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Err: err}
}

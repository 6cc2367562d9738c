package domain

// CheckoutStep описывает шаг оформления заказа. Шаги упорядочены:
// shipping → payment → review.
type CheckoutStep string

const (
	// CheckoutStepShipping — выбор адреса и способа доставки.
	CheckoutStepShipping CheckoutStep = "shipping"
	// CheckoutStepPayment — выбор способа оплаты.
	CheckoutStepPayment CheckoutStep = "payment"
	// CheckoutStepReview — финальная проверка перед отправкой заказа.
	CheckoutStepReview CheckoutStep = "review"
)

// Order возвращает порядковый номер шага; неизвестный шаг считается последним.
func (s CheckoutStep) Order() int {
	switch s {
	case CheckoutStepShipping:
		return 0
	case CheckoutStepPayment:
		return 1
	case CheckoutStepReview:
		return 2
	default:
		return 3
	}
}

// Valid сообщает, входит ли шаг в известный набор.
func (s CheckoutStep) Valid() bool {
	switch s {
	case CheckoutStepShipping, CheckoutStepPayment, CheckoutStepReview:
		return true
	}
	return false
}

// ShippingMethod — вариант доставки, возвращаемый бекендом.
type ShippingMethod struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"priceMinor"`
	Currency   string `json:"currency"`
	EtaDays    int32  `json:"etaDays"`
}

// ShippingMethodFilter ограничивает выборку способов доставки.
type ShippingMethodFilter struct {
	AddressID string `json:"addressId"`
}

// CartItem — позиция корзины. Корзина принадлежит внешней подсистеме,
// здесь она только читается в момент отправки заказа.
type CartItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int32  `json:"quantity"`
}

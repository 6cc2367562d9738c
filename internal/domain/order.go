package domain

import "time"

// OrderCommand — команда создания заказа. Собирается атомарно в момент
// отправки из состояния checkout и корзины; частично не отправляется никогда.
type OrderCommand struct {
	Items             []CartItem `json:"items"`
	ShippingAddressID string     `json:"shippingAddressId"`
	BillingAddressID  string     `json:"billingAddressId,omitempty"`
	ShippingMethodID  string     `json:"shippingMethodId"`
	PaymentMethodID   string     `json:"paymentMethodId"`
	Notes             string     `json:"notes,omitempty"`
}

// Order — подтверждение созданного заказа от бекенда.
type Order struct {
	ID          string    `json:"id"`
	AmountMinor int64     `json:"amountMinor"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ValidateInvariants проверяет, что команда полна, и возвращает список замечаний.
// Любое замечание означает, что сетевой вызов делать нельзя.
func (c *OrderCommand) ValidateInvariants() []error {
	var errs []error

	if len(c.Items) == 0 {
		errs = append(errs, ErrCartEmpty)
	}
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
			break
		}
	}
	if c.ShippingAddressID == "" {
		errs = append(errs, ErrShippingAddressRequired)
	}
	if c.ShippingMethodID == "" {
		errs = append(errs, ErrShippingMethodRequired)
	}
	if c.PaymentMethodID == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}

	return errs
}

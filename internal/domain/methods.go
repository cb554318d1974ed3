package domain

type ShippingMethod struct {
	ID    string `json:"id" yaml:"id"`
	Fee   int64  `json:"fee" yaml:"fee"`
	Label string `json:"label" yaml:"label,omitempty"`
}

type PaymentMethod struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label,omitempty"`
}

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
	ShippingPickup   = "pickup"

	PaymentCOD  = "cod"
	PaymentBank = "bank"
	PaymentMomo = "momo"
	PaymentCard = "card"
)

// DefaultShippingMethods lists the delivery options offered when no config overrides them.
func DefaultShippingMethods() []ShippingMethod {
	return []ShippingMethod{
		{ID: ShippingStandard, Fee: 20000},
		{ID: ShippingExpress, Fee: 40000},
		{ID: ShippingPickup, Fee: 0},
	}
}

func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{ID: PaymentCOD},
		{ID: PaymentBank},
		{ID: PaymentMomo},
		{ID: PaymentCard},
	}
}

// FindShipping returns the method with the given id.
func FindShipping(methods []ShippingMethod, id string) (ShippingMethod, bool) {
	for _, m := range methods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func FindPayment(methods []PaymentMethod, id string) (PaymentMethod, bool) {
	for _, m := range methods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

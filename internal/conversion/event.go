package conversion

// Event is a conversion in the shape the primary ledger sink (UTMify)
// accepts. It is ephemeral: built on demand from an order plus live gateway
// data, never persisted.
type Event struct {
	OrderID            string             `json:"orderId"`
	Platform           string             `json:"platform"`
	PaymentMethod      string             `json:"paymentMethod"`
	Status             string             `json:"status"`
	CreatedAt          string             `json:"createdAt"`
	ApprovedDate       *string            `json:"approvedDate"`
	RefundedAt         *string            `json:"refundedAt"`
	Customer           Customer           `json:"customer"`
	Products           []Product          `json:"products"`
	TrackingParameters map[string]*string `json:"trackingParameters"`
	Commission         Commission         `json:"commission"`
	IsTest             bool               `json:"isTest"`
}

type Customer struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Document string  `json:"document"`
	Country  string  `json:"country"`
	IP       string  `json:"ip"`
}

type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PlanID       *string `json:"planId"`
	PlanName     *string `json:"planName"`
	Quantity     int     `json:"quantity"`
	PriceInCents int64   `json:"priceInCents"`
}

type Commission struct {
	TotalPriceInCents     int64 `json:"totalPriceInCents"`
	GatewayFeeInCents     int64 `json:"gatewayFeeInCents"`
	UserCommissionInCents int64 `json:"userCommissionInCents"`
}

// Gclid returns the event's GCLID, or "" when absent.
func (e *Event) Gclid() string {
	if v, ok := e.TrackingParameters["gclid"]; ok && v != nil {
		return *v
	}
	return ""
}

// Ctax returns the multi-account attribution id, or "" when absent.
func (e *Event) Ctax() string {
	if v, ok := e.TrackingParameters["ctax"]; ok && v != nil {
		return *v
	}
	return ""
}

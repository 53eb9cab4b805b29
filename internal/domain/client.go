package domain

// Client is a gym member. Clients are created implicitly on their first
// payment registration and pruned when their last remaining payment is
// deleted; a persisted client therefore always has at least one payment.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// LastPaymentID references the client's latest payment (greatest
	// period, ties by highest id), nil only transiently inside a
	// registration transaction.
	LastPaymentID *int64 `json:"last_payment_id"`
}

// ClientStatus is the derived standing of a client: the period of their
// latest payment, if any, and the overdue severity relative to a given
// current period.
type ClientStatus struct {
	ClientID  int64    `json:"client_id"`
	Name      string   `json:"name"`
	LastMonth *int     `json:"last_month"`
	LastYear  *int     `json:"last_year"`
	Severity  Severity `json:"severity"`
}

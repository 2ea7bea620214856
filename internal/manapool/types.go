package manapool

// Fulfillment statuses the seller API reports and accepts.
const (
	StatusUnfulfilled = "unfulfilled"
	StatusProcessing  = "processing"
	StatusShipped     = "shipped"
)

// OrderSummary is one row of the paginated seller order list.
type OrderSummary struct {
	ID                      string `json:"id"`
	Label                   string `json:"label"`
	TotalCents              int    `json:"total_cents"`
	LatestFulfillmentStatus string `json:"latest_fulfillment_status"`
}

// Status returns the fulfillment status with the API's empty value mapped
// to unfulfilled.
func (o OrderSummary) Status() string {
	if o.LatestFulfillmentStatus == "" {
		return StatusUnfulfilled
	}
	return o.LatestFulfillmentStatus
}

// Total returns the order total in dollars.
func (o OrderSummary) Total() float64 {
	return float64(o.TotalCents) / 100
}

// IsShipped reports whether the order has already been marked shipped.
func (o OrderSummary) IsShipped() bool {
	return o.LatestFulfillmentStatus == StatusShipped
}

// NeedsFulfillment reports whether the order still has to be picked and
// shipped: unfulfilled, processing, or no status at all.
func (o OrderSummary) NeedsFulfillment() bool {
	switch o.LatestFulfillmentStatus {
	case "", StatusUnfulfilled, StatusProcessing:
		return true
	}
	return false
}

// Order is the full order detail with line items.
type Order struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Items []OrderItem `json:"items"`
}

// OrderItem is one line item of an order.
type OrderItem struct {
	Quantity   int     `json:"quantity"`
	PriceCents int     `json:"price_cents"`
	Product    Product `json:"product"`
}

// Price returns the line item price in dollars.
func (i OrderItem) Price() float64 {
	return float64(i.PriceCents) / 100
}

// Product wraps the sold product; card sales carry a Single.
type Product struct {
	Single       *Single `json:"single"`
	TCGPlayerSKU string  `json:"tcgplayer_sku"`
}

// Single identifies one card printing as ManaPool lists it.
type Single struct {
	Name        string `json:"name"`
	Set         string `json:"set"`
	Number      string `json:"number"`
	ConditionID string `json:"condition_id"`
	FinishID    string `json:"finish_id"`
}

// FulfillmentUpdate is the PUT body for updating an order's fulfillment.
// The API expects every field present, null when unused.
type FulfillmentUpdate struct {
	Status              string  `json:"status"`
	TrackingNumber      *string `json:"tracking_number"`
	TrackingCompany     *string `json:"tracking_company"`
	TrackingURL         *string `json:"tracking_url"`
	InTransitAt         *string `json:"in_transit_at"`
	EstimatedDeliveryAt *string `json:"estimated_delivery_at"`
	DeliveredAt         *string `json:"delivered_at"`
}

// NewFulfillmentUpdate builds the body for a plain status change. The
// tracking number is optional; the API wants null instead of empty strings.
func NewFulfillmentUpdate(status, trackingNumber string) FulfillmentUpdate {
	update := FulfillmentUpdate{Status: status}
	if trackingNumber != "" {
		update.TrackingNumber = &trackingNumber
	}
	return update
}

// ValidUpdateStatus reports whether status can be sent in a fulfillment
// update. The seller API only accepts forward transitions.
func ValidUpdateStatus(status string) bool {
	return status == StatusProcessing || status == StatusShipped
}

package order

// UpdateStatusRequest payload of an order status change.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"Processing"`
}

// Detail is an order with its lines and payment.
// swagger:model OrderDetail
type Detail struct {
	Order   *Order   `json:"order"`
	Items   []Item   `json:"items"`
	Payment *Payment `json:"payment,omitempty"`
}

package models

import "time"

type Order struct {
	ID          int         `json:"id"`
	Code        string      `json:"code"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	BuyerID     int         `json:"buyer_id"`
	Buyer       *Buyer      `json:"buyer"`
	OrderItems  []OrderItem `json:"order_items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Buyer struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	StoreName   *string `json:"store_name"`
}

type OrderItem struct {
	ID       int     `json:"id"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
	Product  struct {
		ID     int        `json:"id"`
		Name   string     `json:"name"`
		Price  float64    `json:"price"`
		Images StringList `json:"images"`
	} `json:"product"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusOnProgress OrderStatus = "onprogress"
	OrderStatusFinished   OrderStatus = "finished"
)

type OrderStatusRequest struct {
	Status OrderStatus `json:"status" url:"status" validate:"oneof=pending onprogress finished"`
}

// Body is empty: the status travels in the query string.
func (OrderStatusRequest) Body() any {
	return struct{}{}
}

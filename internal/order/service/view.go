package service

import (
	"github.com/speedsneakers/order-service/internal/order/domain"
)

// orderDate keeps the original API's local-datetime shape: no zone offset.
const orderDateLayout = "2006-01-02T15:04:05"

type ItemView struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"productId"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"pricePerUnit"`
	Subtotal     string `json:"subtotal"`
}

type View struct {
	ID          int64      `json:"id"`
	OrderDate   string     `json:"orderDate"`
	Status      string     `json:"status"`
	TotalAmount string     `json:"totalAmount"`
	OrderItems  []ItemView `json:"orderItems"`
}

func toView(o *domain.Order) *View {
	v := &View{
		ID:          o.ID,
		OrderDate:   o.OrderDate.Format(orderDateLayout),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		OrderItems:  make([]ItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.OrderItems = append(v.OrderItems, ItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit.StringFixed(2),
			Subtotal:     it.Subtotal.StringFixed(2),
		})
	}

	return v
}

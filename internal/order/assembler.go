package order

import (
	"math"
	"strings"
	"time"

	"github.com/tecnoshop/checkout-service/internal/inventory/dto"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

// RoutingPolicy decides how an order total is split into gateway payments.
type RoutingPolicy string

const (
	// RoutePerStore authorizes one payment per distinct store in the cart.
	RoutePerStore RoutingPolicy = "per_store"
	// RouteFirstStore sends the whole total to the first line item's store.
	RouteFirstStore RoutingPolicy = "first_store"
)

func (p RoutingPolicy) Valid() bool {
	return p == RoutePerStore || p == RouteFirstStore
}

type PaymentSplit struct {
	StoreID string
	Amount  int64
}

type AssembleInput struct {
	OrderID         string
	BuyerID         string
	IdempotencyKey  string
	Items           []dto.ReservedItem
	ShippingAddress string
	PaymentMethod   model.PaymentMethod
	Currency        string
	Routing         RoutingPolicy
	Now             time.Time
}

// Assemble prices reserved items into an unsaved order and computes how its
// total is routed to stores. It performs no I/O.
func Assemble(in AssembleInput) (*model.Order, []PaymentSplit, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, nil, apperror.InvalidRequest("shipping address is required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, nil, apperror.InvalidRequest("unsupported payment method %q", in.PaymentMethod)
	}
	if len(in.Items) == 0 {
		return nil, nil, apperror.InvalidRequest("cart has no line items")
	}

	o := &model.Order{
		ID:              in.OrderID,
		BuyerID:         in.BuyerID,
		IdempotencyKey:  in.IdempotencyKey,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: address,
		Currency:        in.Currency,
		CreatedAt:       in.Now,
		LineItems:       make([]model.OrderLineItem, 0, len(in.Items)),
	}

	var total int64
	for i, item := range in.Items {
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, nil, apperror.InvalidRequest("line item %d has invalid quantity or price", i)
		}
		if item.UnitPrice != 0 && item.Quantity > math.MaxInt64/item.UnitPrice {
			return nil, nil, apperror.InvalidRequest("line item %d subtotal overflows", i)
		}
		subtotal := item.Quantity * item.UnitPrice
		if total > math.MaxInt64-subtotal {
			return nil, nil, apperror.InvalidRequest("order total overflows")
		}
		total += subtotal

		o.LineItems = append(o.LineItems, model.OrderLineItem{
			OrderID:   in.OrderID,
			Position:  i,
			ProductID: item.ProductID,
			StoreID:   item.StoreID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
	}
	o.Total = total

	return o, splitPayments(o.LineItems, total, in.Routing), nil
}

// splitPayments groups the amount due by destination store. Stores owed
// nothing get no split since the gateway cannot authorize a zero amount.
func splitPayments(items []model.OrderLineItem, total int64, policy RoutingPolicy) []PaymentSplit {
	if policy == RouteFirstStore {
		if total == 0 {
			return []PaymentSplit{}
		}
		return []PaymentSplit{{StoreID: items[0].StoreID, Amount: total}}
	}

	splits := []PaymentSplit{}
	index := map[string]int{}
	for _, item := range items {
		i, ok := index[item.StoreID]
		if !ok {
			i = len(splits)
			index[item.StoreID] = i
			splits = append(splits, PaymentSplit{StoreID: item.StoreID})
		}
		splits[i].Amount += item.Subtotal
	}

	due := splits[:0]
	for _, split := range splits {
		if split.Amount > 0 {
			due = append(due, split)
		}
	}
	return due
}

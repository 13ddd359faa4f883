// internal/model/order.go
package model

import (
	"fmt"
	"time"
)

// FulfillmentMode represents how an order reaches the customer
type FulfillmentMode string

const (
	FulfillmentPickup   FulfillmentMode = "pickup"
	FulfillmentDelivery FulfillmentMode = "delivery"
	FulfillmentDineIn   FulfillmentMode = "dine_in"
)

// OrderDocument is the order a receipt is printed for. Amounts are integer
// minor currency units.
type OrderDocument struct {
	ID              string          `json:"id" yaml:"id"`
	ReadableID      string          `json:"readableId,omitempty" yaml:"readableId,omitempty"`
	Customer        *Customer       `json:"customer,omitempty" yaml:"customer,omitempty"`
	Merchant        *Merchant       `json:"merchant,omitempty" yaml:"merchant,omitempty"`
	FulfillmentMode FulfillmentMode `json:"fulfillmentMode,omitempty" yaml:"fulfillmentMode,omitempty"`
	CreatedAt       time.Time       `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	CartItems       []CartItem      `json:"cartItems" yaml:"cartItems"`
	OrderNotes      string          `json:"orderNotes,omitempty" yaml:"orderNotes,omitempty"`
	Cost            *Cost           `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Customer identifies who placed the order
type Customer struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Merchant identifies who fulfils the order
type Merchant struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// CartItem is one ordered product
type CartItem struct {
	ID                  string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string          `json:"name" yaml:"name"`
	Quantity            int64           `json:"quantity" yaml:"quantity"`
	Price               int64           `json:"price" yaml:"price"`
	SpecialInstructions string          `json:"specialInstructions,omitempty" yaml:"specialInstructions,omitempty"`
	ModifierGroups      []ModifierGroup `json:"cartModifierGroups,omitempty" yaml:"cartModifierGroups,omitempty"`
}

// LineTotal is the unit price times the quantity
func (i CartItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

// ModifierGroup groups the modifiers chosen for a cart item
type ModifierGroup struct {
	CatalogModifierGroupID string     `json:"catalogModifierGroupId,omitempty" yaml:"catalogModifierGroupId,omitempty"`
	Name                   string     `json:"name,omitempty" yaml:"name,omitempty"`
	Modifiers              []Modifier `json:"modifiers" yaml:"modifiers"`
}

// Modifier is an option applied to a cart item
type Modifier struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Quantity int64  `json:"quantity" yaml:"quantity"`
	Price    int64  `json:"price" yaml:"price"`
}

// Cost is the money breakdown of an order
type Cost struct {
	SubtotalAmount int64 `json:"subtotalAmount" yaml:"subtotalAmount"`
	Fees           []Fee `json:"fees,omitempty" yaml:"fees,omitempty"`
}

// Fee is a named charge on top of the subtotal
type Fee struct {
	Description string `json:"description" yaml:"description"`
	Amount      int64  `json:"amount" yaml:"amount"`
}

// DisplayID is the identifier printed on the receipt
func (o *OrderDocument) DisplayID() string {
	if o.ReadableID != "" {
		return o.ReadableID
	}
	return o.ID
}

// Validate rejects documents that cannot describe a real order. Missing
// optional sections are allowed.
func (o *OrderDocument) Validate() map[string]string {
	errs := map[string]string{}
	if o.ID == "" && o.ReadableID == "" {
		errs["id"] = "id or readableId is required"
	}
	for i, item := range o.CartItems {
		if item.Name == "" {
			errs[fmt.Sprintf("cartItems[%d].name", i)] = "name is required"
		}
		if item.Quantity < 1 {
			errs[fmt.Sprintf("cartItems[%d].quantity", i)] = "quantity must be at least 1"
		}
		if item.Price < 0 {
			errs[fmt.Sprintf("cartItems[%d].price", i)] = "price must not be negative"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

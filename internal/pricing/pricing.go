// Package pricing turns cart lines into amounts. Everything here is pure and
// safe to call from any goroutine.
package pricing

import (
	"github.com/pittas-dairy/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is the only currency the storefront charges in.
var Currency = currency.INR

// Flat 2.5% each, not configurable.
var (
	sgstRate = decimal.RequireFromString("0.025")
	cgstRate = decimal.RequireFromString("0.025")
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Quote is the priced view of a cart. Total is exact; Charge is what the gateway is billed.
type Quote struct {
	Subtotal decimal.Decimal
	SGST     decimal.Decimal
	CGST     decimal.Decimal
	Total    decimal.Decimal
	Currency currency.Unit
}

func ItemPrice(item domain.CartItem) decimal.Decimal {
	price := decimal.NewFromFloat(item.BasePrice)
	if item.DeliveryFrequency == domain.DeliveryTwice {
		return price.Mul(decimal.NewFromInt(2))
	}
	return price
}

func Subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(ItemPrice(item))
	}
	return sum
}

func SGST(items []domain.CartItem) decimal.Decimal {
	return Subtotal(items).Mul(sgstRate)
}

func CGST(items []domain.CartItem) decimal.Decimal {
	return Subtotal(items).Mul(cgstRate)
}

func Total(items []domain.CartItem) decimal.Decimal {
	return Price(items).Total
}

// ChargeAmount is the total rounded half-up to whole rupees.
func ChargeAmount(items []domain.CartItem) int64 {
	return Price(items).Charge()
}

func Price(items []domain.CartItem) Quote {
	subtotal := Subtotal(items)
	sgst := subtotal.Mul(sgstRate)
	cgst := subtotal.Mul(cgstRate)
	return Quote{
		Subtotal: subtotal,
		SGST:     sgst,
		CGST:     cgst,
		Total:    subtotal.Add(sgst).Add(cgst),
		Currency: Currency,
	}
}

// Charge rounds the exact total to whole rupees. Amounts are never negative,
// so decimal's half-away-from-zero rounding is half-up here.
func (q Quote) Charge() int64 {
	return q.Total.Round(0).IntPart()
}

func (q Quote) ChargeMoney() Money {
	return Money{Amount: decimal.NewFromInt(q.Charge()), Currency: q.Currency}
}

// Display formats an amount the way the cart shows it, to 2 decimal places.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}

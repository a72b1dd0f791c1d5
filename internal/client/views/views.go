// Package views holds pure derivations over client state used by the CLI and
// by the cart checkout.
package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

// LineTotal is price times quantity for one cart line.
func LineTotal(item models.CartItem) float64 {
	return item.Product.Price * float64(item.Quantity)
}

// TotalPrice sums LineTotal over the cart.
func TotalPrice(cart models.Cart) float64 {
	var total float64
	for _, it := range cart.CartItems {
		total += LineTotal(it)
	}
	return total
}

// ItemCount is the number of units in the cart.
func ItemCount(cart models.Cart) int {
	n := 0
	for _, it := range cart.CartItems {
		n += it.Quantity
	}
	return n
}

// Narration describes the cart for the payment provider, e.g. "2x Tee, 1x Mug".
func Narration(cart models.Cart) string {
	parts := make([]string, 0, len(cart.CartItems))
	for _, it := range cart.CartItems {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Product.Name))
	}
	return strings.Join(parts, ", ")
}

// FormatPrice renders an amount with two decimals.
func FormatPrice(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// AuthorName is the display name of a comment author. Anonymous authors get
// "Anonymous".
func AuthorName(c models.Comment) string {
	name := strings.TrimSpace(c.User.FirstName + " " + c.User.LastName)
	if name == "" {
		return "Anonymous"
	}
	return name
}

// ProgramStatus is the badge shown next to a program title.
func ProgramStatus(p *models.Program) string {
	if p == nil {
		return "OFF AIR"
	}
	status := "UPCOMING"
	if p.IsLive {
		status = "LIVE"
	}
	if p.ViewerCount != nil {
		status += fmt.Sprintf(" · %d watching", *p.ViewerCount)
	}
	return status
}

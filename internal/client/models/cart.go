package models

// Product is a store product as embedded in cart items and product listings.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
}

// CartItem is one line of a cart. Quantity is never negative.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// Cart is the authoritative client-side view of a user's cart. CartItems is
// never nil once a cart has been loaded or reset.
type Cart struct {
	CartItems []CartItem `json:"cartItems"`
}

// EmptyCart returns a cart with a non-nil, empty item list.
func EmptyCart() Cart {
	return Cart{CartItems: []CartItem{}}
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.CartItems))
	copy(items, c.CartItems)
	return Cart{CartItems: items}
}

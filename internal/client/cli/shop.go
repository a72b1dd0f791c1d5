package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/client/services"
	"github.com/dmitrijs2005/flockapp/internal/client/views"
)

const dateLayout = "Mon 02 Jan 15:04"

func (a *App) Products(ctx context.Context) error {
	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, views.FormatPrice(p.Price))
	}
	return tw.Flush()
}

// Events lists upcoming events, or every event when all is set. Pages are
// numbered from 1.
func (a *App) Events(ctx context.Context, all bool, page int) error {
	q := models.EventQuery{Limit: services.DefaultEventLimit, Offset: (page - 1) * services.DefaultEventLimit}
	if !all {
		active := true
		q.Active = &active
	}

	events, err := a.catalog.ListEvents(ctx, q)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTITLE\tWHERE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.StartsAt.Local().Format(dateLayout), e.Title, e.Location)
	}
	return tw.Flush()
}

// ShowCart reloads the cart and prints it.
func (a *App) ShowCart(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	if err := a.cart.FetchCart(ctx); err != nil {
		return err
	}
	return a.printCart()
}

func (a *App) Add(ctx context.Context, productID string) error {
	product, err := a.catalog.FindProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := a.cart.AddToCart(ctx, product); err != nil {
		return err
	}
	return a.printCart()
}

func (a *App) Inc(ctx context.Context, productID string) error {
	if err := a.cart.IncreaseQuantity(ctx, productID); err != nil {
		return err
	}
	return a.printCart()
}

// Dec sets the product's quantity; zero or less removes the line.
func (a *App) Dec(ctx context.Context, productID string, quantity int) error {
	if err := a.cart.DecreaseQuantity(ctx, productID, quantity); err != nil {
		return err
	}
	return a.printCart()
}

func (a *App) Remove(ctx context.Context, itemID string) error {
	if err := a.cart.RemoveCartItemByID(ctx, itemID); err != nil {
		return err
	}
	return a.printCart()
}

// Checkout submits the cart and opens the payment page.
func (a *App) Checkout(ctx context.Context) error {
	url, err := a.cart.Checkout(ctx)
	if err != nil {
		return err
	}
	if url == "" {
		fmt.Fprintln(a.out, "Your cart is empty.")
	}
	return nil
}

func (a *App) printCart() error {
	c := a.cart.State().Cart
	if len(c.CartItems) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE\tTOTAL")
	for _, it := range c.CartItems {
		fmt.Fprintf(tw, "%s\t%s (%s)\t%d\t%s\t%s\n",
			it.ID, it.Product.Name, it.ProductID, it.Quantity,
			views.FormatPrice(it.Product.Price), views.FormatPrice(views.LineTotal(it)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%d item(s), total %s\n", views.ItemCount(c), views.FormatPrice(views.TotalPrice(c)))
	return nil
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

const taxRate = 0.1

// CartMutationResult is the payload of add/remove/update actions: the
// confirmation plus the full cart after the change.
type CartMutationResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Item    *contractx.CartLine `json:"item,omitempty"`
	Cart    contractx.CartView  `json:"cart"`
}

// addToCart validates the reference strictly: an id the user was never
// shown is rejected with suggestions instead of being added blindly.
func (e *Executor) addToCart(ctx context.Context, params map[string]any, sessionID string) (any, error) {
	productID := stringParam(params, "product_id")
	quantity := intParam(params, "quantity", 1)
	if quantity < 1 {
		quantity = 1
	}

	ref, err := e.tracker.ValidateReference(ctx, sessionID, productID)
	if err != nil {
		return nil, err
	}
	if !ref.Valid {
		return contractx.ErrorResult{
			Error:          ref.Error,
			Code:           "invalid_reference",
			Suggestions:    ref.Suggestions,
			RecentSearches: ref.RecentSearches,
		}, nil
	}

	product, err := e.catalog.ProductByID(ctx, productID)
	if errors.Is(err, contractx.ErrProductNotFound) {
		return contractx.ErrorResult{
			Error: fmt.Sprintf("product %q does not exist", productID),
			Code:  "product_not_found",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	item, err := e.cart.Get(ctx, sessionID, productID)
	switch {
	case errors.Is(err, contractx.ErrCartItemNotFound):
		item = &contractx.CartItem{
			SessionID: sessionID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			AddedAt:   time.Now().UTC(),
		}
	case err != nil:
		return nil, err
	default:
		item.Quantity += quantity
	}
	item.TotalPrice = round2(item.UnitPrice * float64(item.Quantity))

	if err := e.cart.Put(ctx, item); err != nil {
		return nil, err
	}

	view, err := e.cartView(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return CartMutationResult{
		Success: true,
		Message: fmt.Sprintf("Added %d x %s to your cart", quantity, product.Name),
		Item:    cartLine(*item, product.Name),
		Cart:    view,
	}, nil
}

// removeFromCart never validates the reference: removing something that
// is already in the cart needs no fresh grounding.
func (e *Executor) removeFromCart(ctx context.Context, params map[string]any, sessionID string) (any, error) {
	if itemID := int64(intParam(params, "item_id", 0)); itemID > 0 {
		if err := e.cart.DeleteByID(ctx, sessionID, itemID); err != nil {
			return cartNotFoundResult(err)
		}
		return e.removalResult(ctx, sessionID, fmt.Sprintf("Removed item %d from your cart", itemID))
	}

	productID := stringParam(params, "product_id")
	if productID == "" {
		resolved, err := e.resolveCartQuery(ctx, sessionID, stringParam(params, "query"))
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return contractx.ErrorResult{
				Error: "could not tell which cart item to remove",
				Code:  "cart_item_not_found",
			}, nil
		}
		productID = resolved
	}

	if err := e.cart.DeleteByProduct(ctx, sessionID, productID); err != nil {
		return cartNotFoundResult(err)
	}
	return e.removalResult(ctx, sessionID, fmt.Sprintf("Removed %s from your cart", productID))
}

// updateCart applies a signed quantity delta. A delta that drops the
// quantity to zero or below removes the row; a positive delta on a
// missing row creates it, which is the one update path that validates
// the reference.
func (e *Executor) updateCart(ctx context.Context, params map[string]any, sessionID string) (any, error) {
	productID := stringParam(params, "product_id")
	delta := intParam(params, "delta", 0)
	if productID == "" || delta == 0 {
		return contractx.ErrorResult{
			Error: "update needs a product id and a non-zero delta",
			Code:  "invalid_parameters",
		}, nil
	}

	item, err := e.cart.Get(ctx, sessionID, productID)
	if errors.Is(err, contractx.ErrCartItemNotFound) {
		if delta < 0 {
			return contractx.ErrorResult{
				Error: fmt.Sprintf("product %q is not in your cart", productID),
				Code:  "cart_item_not_found",
			}, nil
		}
		add := map[string]any{"product_id": productID, "quantity": delta}
		return e.addToCart(ctx, add, sessionID)
	}
	if err != nil {
		return nil, err
	}

	item.Quantity += delta
	if item.Quantity <= 0 {
		if err := e.cart.DeleteByID(ctx, sessionID, item.ID); err != nil {
			return nil, err
		}
		return e.removalResult(ctx, sessionID, fmt.Sprintf("Removed %s from your cart", productID))
	}

	item.TotalPrice = round2(item.UnitPrice * float64(item.Quantity))
	if err := e.cart.Put(ctx, item); err != nil {
		return nil, err
	}

	view, err := e.cartView(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return CartMutationResult{
		Success: true,
		Message: fmt.Sprintf("Updated %s to quantity %d", productID, item.Quantity),
		Item:    cartLine(*item, e.productName(ctx, productID)),
		Cart:    view,
	}, nil
}

func (e *Executor) getCart(ctx context.Context, sessionID string) (any, error) {
	return e.cartView(ctx, sessionID)
}

/* ------------------------------- helpers ------------------------------- */

func (e *Executor) cartView(ctx context.Context, sessionID string) (contractx.CartView, error) {
	items, err := e.cart.Items(ctx, sessionID)
	if err != nil {
		return contractx.CartView{}, err
	}

	view := contractx.CartView{Items: make([]contractx.CartLine, 0, len(items))}
	for _, item := range items {
		view.Items = append(view.Items, *cartLine(item, e.productName(ctx, item.ProductID)))
		view.Summary.TotalItems += item.Quantity
		view.Summary.Subtotal += item.TotalPrice
	}
	view.Summary.TotalProducts = len(items)
	view.Summary.Subtotal = round2(view.Summary.Subtotal)
	view.Summary.EstimatedTax = round2(view.Summary.Subtotal * taxRate)
	view.Summary.EstimatedTotal = round2(view.Summary.Subtotal + view.Summary.EstimatedTax)
	return view, nil
}

func (e *Executor) removalResult(ctx context.Context, sessionID, message string) (any, error) {
	view, err := e.cartView(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return CartMutationResult{Success: true, Message: message, Cart: view}, nil
}

// resolveCartQuery matches free text against the names of products
// already in the cart.
func (e *Executor) resolveCartQuery(ctx context.Context, sessionID, query string) (string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "", nil
	}

	items, err := e.cart.Items(ctx, sessionID)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		name := strings.ToLower(e.productName(ctx, item.ProductID))
		if strings.Contains(name, query) || strings.Contains(item.ProductID, query) {
			return item.ProductID, nil
		}
	}
	return "", nil
}

func (e *Executor) productName(ctx context.Context, productID string) string {
	product, err := e.catalog.ProductByID(ctx, productID)
	if err != nil {
		return productID
	}
	return product.Name
}

func cartLine(item contractx.CartItem, name string) *contractx.CartLine {
	return &contractx.CartLine{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: name,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
		AddedAt:     item.AddedAt,
	}
}

func cartNotFoundResult(err error) (any, error) {
	if errors.Is(err, contractx.ErrCartItemNotFound) {
		return contractx.ErrorResult{
			Error: "that item is not in your cart",
			Code:  "cart_item_not_found",
		}, nil
	}
	return nil, err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
)

// CartView is the cart as the storefront renders it.
type CartView struct {
	Items []domain.LineItem `json:"items"`
	domain.Totals
}

func NewCartView(c domain.Cart) CartView {
	items := make([]domain.LineItem, len(c.Items))
	copy(items, c.Items)
	return CartView{Items: items, Totals: c.Totals()}
}

type CartService struct {
	sessions SessionStore
	products ProductRepo
	ledger   *Ledger
	now      func() time.Time
}

func NewCartService(sessions SessionStore, products ProductRepo, ledger *Ledger, opts ...Option) *CartService {
	o := resolve(opts)
	return &CartService{sessions: sessions, products: products, ledger: ledger, now: o.now}
}

func (uc *CartService) View(ctx context.Context, sid string) (CartView, error) {
	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(s.Cart), nil
}

// AddItem adds one unit at the price for the session's tier and pays the
// add-to-cart reward.
func (uc *CartService) AddItem(ctx context.Context, sid, productID string) (CartView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: productId is required", ErrInvalidInput)
	}
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if err := editable(s); err != nil {
			return err
		}
		p, err := uc.products.Get(ctx, productID)
		if err != nil {
			return err
		}
		s.Cart.Add(p, s.Wholesale)
		uc.ledger.Credit(s, domain.AddToCartPoints, "add_to_cart")
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(s.Cart), nil
}

func (uc *CartService) RemoveItem(ctx context.Context, sid, productID string) (CartView, error) {
	return uc.mutate(ctx, sid, func(c *domain.Cart) { c.Remove(productID) })
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (uc *CartService) SetQuantity(ctx context.Context, sid, productID string, quantity int) (CartView, error) {
	return uc.mutate(ctx, sid, func(c *domain.Cart) { c.SetQuantity(productID, quantity) })
}

func (uc *CartService) Clear(ctx context.Context, sid string) (CartView, error) {
	return uc.mutate(ctx, sid, func(c *domain.Cart) { c.Clear() })
}

func (uc *CartService) mutate(ctx context.Context, sid string, fn func(c *domain.Cart)) (CartView, error) {
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if err := editable(s); err != nil {
			return err
		}
		fn(&s.Cart)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return NewCartView(s.Cart), nil
}

// editable refuses cart edits while a hosted payment is open for the cart or
// an order is being placed from it. Cancel the payment to edit again.
func editable(s *domain.Session) error {
	if s.Checkout.CartLocked() {
		return fmt.Errorf("%w: cart is locked in %s", ErrInvalidTransition, s.Checkout.CurrentStage())
	}
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/config"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"

	"go.uber.org/zap"
)

// CartService owns the canonical cart for each identity. The cart is stored
// as a JSON array of lines under one key per identity; every mutation is a
// read-modify-write of the whole array.
type CartService struct {
	store       database.KVStore
	ttl         time.Duration
	shippingFee float64
	taxRate     float64
	log         *zap.Logger
}

func NewCartService(store database.KVStore, cfg config.Config, log *zap.Logger) *CartService {
	return &CartService{
		store:       store,
		ttl:         cfg.CartTTL,
		shippingFee: cfg.ShippingFee,
		taxRate:     cfg.TaxRate,
		log:         log,
	}
}

// Load returns the cart for an identity. The cart is a non-authoritative
// convenience store, so missing or corrupt data yields an empty cart rather
// than an error.
func (s *CartService) Load(ctx context.Context, identity string) *models.Cart {
	cart := &models.Cart{UserID: identity, Items: []models.CartItem{}}

	data, err := s.store.Get(ctx, storageKey(kindCart, identity))
	if err != nil {
		if !errors.Is(err, database.ErrKeyNotFound) {
			s.log.Warn("cart read failed, starting empty",
				zap.String("user_id", identity), zap.Error(err))
		}
		return cart
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("cart data corrupt, starting empty",
			zap.String("user_id", identity), zap.Error(err))
		return cart
	}

	for _, item := range items {
		cart.Items = append(cart.Items, item.Normalize())
	}
	return cart
}

// Replace overwrites the stored cart for an identity with the given lines.
// Used by the checkout staging protocol to restore a backed-up cart.
func (s *CartService) Replace(ctx context.Context, identity string, items []models.CartItem) error {
	return s.save(ctx, identity, items)
}

// AddItem merges an item into the cart: an existing line with the same
// (product, size, color) key has its quantity incremented, otherwise a new
// line is appended. The returned cart reflects the mutation even when the
// write failed, so the caller can retry.
func (s *CartService) AddItem(ctx context.Context, identity string, item models.CartItem, quantity int) (*models.Cart, error) {
	cart := s.Load(ctx, identity)
	if quantity < 1 {
		return cart, nil
	}

	item = item.Normalize()
	if i := cart.FindItem(item.Key()); i >= 0 {
		cart.Items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		cart.Items = append(cart.Items, item)
	}

	return cart, s.save(ctx, identity, cart.Items)
}

// UpdateQuantity sets the quantity of the matching line. A quantity of zero
// or less removes the line; an unknown key is a silent no-op, since stale UI
// state makes that a normal occurrence.
func (s *CartService) UpdateQuantity(ctx context.Context, identity string, key models.ItemKey, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, identity, key)
	}

	cart := s.Load(ctx, identity)
	i := cart.FindItem(key)
	if i < 0 {
		return cart, nil
	}

	cart.Items[i].Quantity = quantity
	return cart, s.save(ctx, identity, cart.Items)
}

// RemoveItem deletes the matching line if present; no-op otherwise.
func (s *CartService) RemoveItem(ctx context.Context, identity string, key models.ItemKey) (*models.Cart, error) {
	cart := s.Load(ctx, identity)
	i := cart.FindItem(key)
	if i < 0 {
		return cart, nil
	}

	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	return cart, s.save(ctx, identity, cart.Items)
}

// ComputeTotal derives the price breakdown for a set of lines. Shipping is a
// flat fee waived on an empty subtotal.
func (s *CartService) ComputeTotal(items []models.CartItem) models.Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	var shipping float64
	if subtotal > 0 {
		shipping = s.shippingFee
	}
	tax := subtotal * s.taxRate

	return models.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}

func (s *CartService) save(ctx context.Context, identity string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	if err := s.store.Set(ctx, storageKey(kindCart, identity), data, s.ttl); err != nil {
		s.log.Error("cart write failed",
			zap.String("user_id", identity), zap.Error(err))
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	return nil
}

// Package blob persists JSON documents under string keys. It stands in for the
// browser local storage the marketplace front end used to keep carts, checkout
// inputs and order history.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("blob not found")

// Store is the key-value surface every backend implements.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Transactional stores can run several reads and writes as one unit.
type Transactional interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Atomically runs fn inside a transaction when the store supports one, and
// directly against the store otherwise.
func Atomically(ctx context.Context, store Store, fn func(Store) error) error {
	if tx, ok := store.(Transactional); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(store)
}

// GetJSON decodes the value at key into dest. found is false when the key is absent.
func GetJSON(ctx context.Context, store Store, key string, dest any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get blob %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode blob %q: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes value and stores it at key.
func PutJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode blob %q: %w", key, err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put blob %q: %w", key, err)
	}
	return nil
}

// Delete removes key, treating an absent key as success.
func Delete(ctx context.Context, store Store, key string) error {
	if err := store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// Well-known blob names.
const (
	KeyProducts        = "products"
	KeyCart            = "marketplaceCart"
	KeyShippingInfo    = "shippingInfo"
	KeyPaymentInfo     = "paymentInfo"
	KeyOrderSummary    = "orderSummary"
	KeyAppliedCoupon   = "appliedCoupon"
	KeyUserOrders      = "userOrders"
	KeyCheckoutSession = "checkoutSession"
)

// SessionKey scopes name to a shopper session.
func SessionKey(sessionID, name string) string {
	return strings.Join([]string{"session", strings.TrimSpace(sessionID), name}, ":")
}

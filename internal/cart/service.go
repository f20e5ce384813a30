package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/shopspring/decimal"
)

const DefaultRecommendationLimit = 4

// Preview is the cart page view: the lines plus the priced summary.
type Preview struct {
	Items   Ledger          `json:"items"`
	Count   int             `json:"count"`
	Summary pricing.Summary `json:"summary"`
}

// Service manages the per-session cart ledger.
type Service interface {
	Get(ctx context.Context, sessionID string) (Ledger, error)
	Add(ctx context.Context, sessionID string, productID int64, quantity int) (bool, error)
	Remove(ctx context.Context, sessionID string, productID int64) error
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error
	Clear(ctx context.Context, sessionID string) error
	Total(ctx context.Context, sessionID string) (decimal.Decimal, error)
	Count(ctx context.Context, sessionID string) (int, error)
	Preview(ctx context.Context, sessionID string) (Preview, error)
	Recommendations(ctx context.Context, sessionID string, limit int) ([]catalog.Product, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Store   blob.Store
	Locker  *blob.Locker
	Catalog catalog.Service
	Policy  pricing.Policy
	Clock   func() time.Time
}

type service struct {
	store   blob.Store
	locker  *blob.Locker
	catalog catalog.Service
	policy  pricing.Policy
	clock   func() time.Time
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob store is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog service is required")
	}
	locker := params.Locker
	if locker == nil {
		locker = blob.NewLocker()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:   params.Store,
		locker:  locker,
		catalog: params.Catalog,
		policy:  params.Policy,
		clock:   clock,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (Ledger, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

// Add puts quantity units of productID in the cart. It returns false without
// touching the cart when the product does not resolve in the catalog.
func (s *service) Add(ctx context.Context, sessionID string, productID int64, quantity int) (bool, error) {
	if err := requireSession(sessionID); err != nil {
		return false, err
	}
	if quantity < 1 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}

	err = s.mutate(ctx, sessionID, func(l *Ledger) {
		l.Add(product, quantity, s.clock().UTC())
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops the product's line; an absent line is not an error.
func (s *service) Remove(ctx context.Context, sessionID string, productID int64) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	return s.mutate(ctx, sessionID, func(l *Ledger) { l.Remove(productID) })
}

// SetQuantity stores quantity as given; callers clamp shopper input.
func (s *service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	missing := false
	err := s.mutate(ctx, sessionID, func(l *Ledger) {
		missing = !l.SetQuantity(productID, quantity)
	})
	if err != nil {
		return err
	}
	if missing {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	return s.mutate(ctx, sessionID, func(l *Ledger) { l.Clear() })
}

func (s *service) Total(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	ledger, err := s.Get(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Total(), nil
}

func (s *service) Count(ctx context.Context, sessionID string) (int, error) {
	ledger, err := s.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return ledger.Count(), nil
}

// Preview prices the cart with the same policy checkout uses.
func (s *service) Preview(ctx context.Context, sessionID string) (Preview, error) {
	ledger, err := s.Get(ctx, sessionID)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Items:   ledger,
		Count:   ledger.Count(),
		Summary: s.policy.Summarize(ledger.Total(), nil),
	}, nil
}

// Recommendations suggests products sharing a category with the cart and not
// already in it, topping up with featured products.
func (s *service) Recommendations(ctx context.Context, sessionID string, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	ledger, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	categories := map[string]struct{}{}
	for _, e := range ledger {
		categories[e.Product.Category] = struct{}{}
	}
	products, err := s.catalog.Products(ctx, catalog.ProductQuery{})
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Product, 0, limit)
	picked := map[int64]struct{}{}
	pick := func(p catalog.Product) {
		if len(out) >= limit || ledger.Contains(p.ID) {
			return
		}
		if _, ok := picked[p.ID]; ok {
			return
		}
		picked[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range products {
		if _, ok := categories[p.Category]; ok {
			pick(p)
		}
	}
	if len(out) < limit {
		featured, err := s.catalog.Featured(ctx, catalog.DefaultFeaturedLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range featured {
			pick(p)
		}
	}
	return out, nil
}

func (s *service) load(ctx context.Context, sessionID string) (Ledger, error) {
	ledger, err := Load(ctx, s.store, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return ledger, nil
}

func (s *service) mutate(ctx context.Context, sessionID string, fn func(*Ledger)) error {
	unlock := s.locker.Lock(Key(sessionID))
	defer unlock()

	ledger, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	fn(&ledger)
	if err := Save(ctx, s.store, sessionID, ledger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func requireSession(sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}

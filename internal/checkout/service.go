package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
)

// DefaultPlacementDelay stands in for the payment round trip.
const DefaultPlacementDelay = 2 * time.Second

const orderIDSpace = 100_000_000

// Service drives a session through shipping, payment, review and placement.
type Service interface {
	State(ctx context.Context, sessionID string) (State, error)
	SubmitShipping(ctx context.Context, sessionID string, input ShippingInput) (State, error)
	SubmitPayment(ctx context.Context, sessionID string, input PaymentInput) (State, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (State, error)
	PlaceOrder(ctx context.Context, sessionID string) (Placement, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Store   blob.Store
	Locker  *blob.Locker
	Policy  pricing.Policy
	Logger  *logger.Logger
	Metrics *metrics.MarketplaceMetrics
	// Delay is how long placement waits before finalizing. Zero uses the default.
	Delay time.Duration
	Clock func() time.Time
	Sleep func(time.Duration)
}

type service struct {
	store   blob.Store
	locker  *blob.Locker
	policy  pricing.Policy
	logg    *logger.Logger
	metrics *metrics.MarketplaceMetrics
	delay   time.Duration
	clock   func() time.Time
	sleep   func(time.Duration)
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	svc := &service{
		store:   params.Store,
		locker:  params.Locker,
		policy:  params.Policy,
		logg:    params.Logger,
		metrics: params.Metrics,
		delay:   params.Delay,
		clock:   params.Clock,
		sleep:   params.Sleep,
	}
	if svc.locker == nil {
		svc.locker = blob.NewLocker()
	}
	if svc.delay <= 0 {
		svc.delay = DefaultPlacementDelay
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.sleep == nil {
		svc.sleep = time.Sleep
	}
	return svc, nil
}

func (s *service) State(ctx context.Context, sessionID string) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	return s.view(ctx, s.store, sessionID)
}

// SubmitShipping stores the shipping form and moves the session to payment.
// It can be resubmitted from any step to correct the address.
func (s *service) SubmitShipping(ctx context.Context, sessionID string, input ShippingInput) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	info, err := validateShipping(input)
	if err != nil {
		s.metrics.GateRejected(string(enums.CheckoutStepShipping))
		return State{}, err
	}

	unlock := s.locker.Lock(sessionKey(sessionID))
	defer unlock()

	if err := blob.PutJSON(ctx, s.store, blob.SessionKey(sessionID, blob.KeyShippingInfo), info); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipping info")
	}
	if err := s.saveStep(ctx, s.store, sessionID, enums.CheckoutStepPayment); err != nil {
		return State{}, err
	}
	return s.view(ctx, s.store, sessionID)
}

// SubmitPayment validates the payment form against a non-empty cart, stores
// the masked payment record with the reviewed summary and moves to review.
func (s *service) SubmitPayment(ctx context.Context, sessionID string, input PaymentInput) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}

	unlock := s.locker.Lock(sessionKey(sessionID))
	defer unlock()

	sess, err := s.loadSession(ctx, s.store, sessionID)
	if err != nil {
		return State{}, err
	}
	if !sess.Step.Reached(enums.CheckoutStepPayment) {
		s.metrics.GateRejected(string(enums.CheckoutStepPayment))
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping information must be submitted first").
			WithDetails(map[string]any{"step": sess.Step})
	}

	ledger, err := cart.Load(ctx, s.store, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(ledger) == 0 {
		s.metrics.GateRejected(string(enums.CheckoutStepPayment))
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	info, err := validatePayment(input, s.clock())
	if err != nil {
		s.metrics.GateRejected(string(enums.CheckoutStepPayment))
		return State{}, err
	}

	coupon, err := s.loadCoupon(ctx, s.store, sessionID)
	if err != nil {
		return State{}, err
	}
	summary := orders.Summary{
		Items:   ledger.Clone(),
		Summary: s.policy.Summarize(ledger.Total(), coupon),
		Coupon:  coupon,
	}

	err = blob.Atomically(ctx, s.store, func(tx blob.Store) error {
		if err := blob.PutJSON(ctx, tx, blob.SessionKey(sessionID, blob.KeyPaymentInfo), info); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment info")
		}
		if err := blob.PutJSON(ctx, tx, blob.SessionKey(sessionID, blob.KeyOrderSummary), summary); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order summary")
		}
		return s.saveStep(ctx, tx, sessionID, enums.CheckoutStepReview)
	})
	if err != nil {
		return State{}, err
	}
	return s.view(ctx, s.store, sessionID)
}

// ApplyCoupon attaches a coupon to the session. A session holds at most one
// coupon until its order is placed.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (State, error) {
	if err := requireSession(sessionID); err != nil {
		return State{}, err
	}
	coupon, err := pricing.LookupCoupon(code)
	if err != nil {
		s.metrics.CouponAttempt("invalid")
		return State{}, err
	}

	unlock := s.locker.Lock(sessionKey(sessionID))
	defer unlock()

	existing, err := s.loadCoupon(ctx, s.store, sessionID)
	if err != nil {
		return State{}, err
	}
	if existing != nil {
		s.metrics.CouponAttempt("duplicate")
		return State{}, pkgerrors.New(pkgerrors.CodeConflict, "a coupon has already been applied").
			WithDetails(map[string]any{"code": existing.Code})
	}

	err = blob.Atomically(ctx, s.store, func(tx blob.Store) error {
		if err := blob.PutJSON(ctx, tx, blob.SessionKey(sessionID, blob.KeyAppliedCoupon), coupon); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save coupon")
		}
		return s.refreshReviewedSummary(ctx, tx, sessionID, &coupon)
	})
	if err != nil {
		return State{}, err
	}
	s.metrics.CouponAttempt("applied")
	return s.view(ctx, s.store, sessionID)
}

// PlaceOrder finalizes a reviewed checkout. Once the processing delay starts
// the placement runs to completion even if the caller goes away.
func (s *service) PlaceOrder(ctx context.Context, sessionID string) (Placement, error) {
	if err := requireSession(sessionID); err != nil {
		return Placement{}, err
	}

	unlock := s.locker.Lock(sessionKey(sessionID))
	defer unlock()
	unlockCart := s.locker.Lock(cart.Key(sessionID))
	defer unlockCart()
	unlockOrders := s.locker.Lock(orders.Key(sessionID))
	defer unlockOrders()

	sess, err := s.loadSession(ctx, s.store, sessionID)
	if err != nil {
		return Placement{}, err
	}
	if sess.Step != enums.CheckoutStepReview {
		s.metrics.GateRejected(string(enums.CheckoutStepReview))
		return Placement{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not ready for review").
			WithDetails(map[string]any{"step": sess.Step})
	}
	reviewed, err := s.loadReviewed(ctx, s.store, sessionID)
	if err != nil {
		return Placement{}, err
	}

	started := s.clock()
	ctx = context.WithoutCancel(ctx)
	s.sleep(s.delay)

	var placed orders.Order
	err = blob.Atomically(ctx, s.store, func(tx blob.Store) error {
		order, err := s.buildOrder(ctx, tx, sessionID, reviewed)
		if err != nil {
			return err
		}
		if err := orders.Append(ctx, tx, sessionID, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order")
		}
		if err := cart.Save(ctx, tx, sessionID, cart.Ledger{}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := blob.Delete(ctx, tx, blob.SessionKey(sessionID, blob.KeyAppliedCoupon)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear coupon")
		}
		if err := s.saveStep(ctx, tx, sessionID, enums.CheckoutStepShipping); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return Placement{}, err
	}

	s.metrics.OrderPlaced(s.clock().Sub(started))
	s.metrics.StatusChanged(string(placed.Status))
	logCtx := s.logg.WithOrderID(ctx, placed.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"total": placed.OrderSummary.Summary.Total.StringFixed(2),
		"items": placed.OrderSummary.Items.Count(),
	})
	s.logg.Info(logCtx, "order placed")

	return Placement{Order: orders.Describe(placed)}, nil
}

// buildOrder finalizes the summary stored at review, never the live cart.
func (s *service) buildOrder(ctx context.Context, store blob.Store, sessionID string, reviewed orders.Summary) (orders.Order, error) {
	var shipping orders.ShippingInfo
	if found, err := blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyShippingInfo), &shipping); err != nil {
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping info")
	} else if !found {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping information is missing")
	}
	var payment orders.PaymentInfo
	if found, err := blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyPaymentInfo), &payment); err != nil {
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment info")
	} else if !found {
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment information is missing")
	}
	history, err := orders.Load(ctx, store, sessionID)
	if err != nil {
		return orders.Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}

	now := s.clock().UTC()
	return orders.Order{
		ID:           nextOrderID(now, history),
		Date:         now,
		ShippingInfo: shipping,
		PaymentInfo:  payment,
		OrderSummary: orders.Summary{
			Items:   reviewed.Items.Clone(),
			Summary: reviewed.Summary,
			Coupon:  reviewed.Coupon,
		},
		Status: enums.OrderStatusProcessing,
	}, nil
}

// nextOrderID uses the last eight digits of the unix millisecond clock,
// stepping forward past ids already in the history.
func nextOrderID(now time.Time, history []orders.Order) string {
	taken := make(map[string]struct{}, len(history))
	for _, o := range history {
		taken[o.ID] = struct{}{}
	}
	n := now.UnixMilli() % orderIDSpace
	for {
		id := fmt.Sprintf("ORD%08d", n)
		if _, ok := taken[id]; !ok {
			return id
		}
		n = (n + 1) % orderIDSpace
	}
}

// loadReviewed returns the summary saved at review. When the cart has been
// edited since, the session drops back to payment so the shopper reviews the
// new totals before anything is placed.
func (s *service) loadReviewed(ctx context.Context, store blob.Store, sessionID string) (orders.Summary, error) {
	var reviewed orders.Summary
	found, err := blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyOrderSummary), &reviewed)
	if err != nil {
		return orders.Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order summary")
	}
	if !found || len(reviewed.Items) == 0 {
		s.metrics.GateRejected(string(enums.CheckoutStepReview))
		return orders.Summary{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order summary is missing")
	}
	live, err := cart.Load(ctx, store, sessionID)
	if err != nil {
		return orders.Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !sameLines(live, reviewed.Items) {
		s.metrics.GateRejected(string(enums.CheckoutStepReview))
		if err := s.saveStep(ctx, store, sessionID, enums.CheckoutStepPayment); err != nil {
			return orders.Summary{}, err
		}
		return orders.Summary{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed since review").
			WithDetails(map[string]any{"step": enums.CheckoutStepPayment})
	}
	return reviewed, nil
}

func sameLines(a, b cart.Ledger) bool {
	if len(a) != len(b) {
		return false
	}
	quantities := make(map[int64]int, len(a))
	for _, e := range a {
		quantities[e.ProductID] = e.Quantity
	}
	for _, e := range b {
		if q, ok := quantities[e.ProductID]; !ok || q != e.Quantity {
			return false
		}
	}
	return true
}

func (s *service) refreshReviewedSummary(ctx context.Context, store blob.Store, sessionID string, coupon *pricing.Coupon) error {
	key := blob.SessionKey(sessionID, blob.KeyOrderSummary)
	var summary orders.Summary
	found, err := blob.GetJSON(ctx, store, key, &summary)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order summary")
	}
	if !found {
		return nil
	}
	summary.Coupon = coupon
	summary.Summary = s.policy.Summarize(summary.Items.Total(), coupon)
	if err := blob.PutJSON(ctx, store, key, summary); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order summary")
	}
	return nil
}

func (s *service) view(ctx context.Context, store blob.Store, sessionID string) (State, error) {
	sess, err := s.loadSession(ctx, store, sessionID)
	if err != nil {
		return State{}, err
	}
	ledger, err := cart.Load(ctx, store, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	coupon, err := s.loadCoupon(ctx, store, sessionID)
	if err != nil {
		return State{}, err
	}

	state := State{
		Step:    sess.Step,
		Coupon:  coupon,
		Items:   ledger,
		Summary: s.policy.Summarize(ledger.Total(), coupon),
	}
	var shipping orders.ShippingInfo
	found, err := blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyShippingInfo), &shipping)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping info")
	}
	if found {
		state.ShippingInfo = &shipping
	}
	var payment orders.PaymentInfo
	found, err = blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyPaymentInfo), &payment)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment info")
	}
	if found {
		state.PaymentInfo = &payment
	}
	return state, nil
}

func (s *service) loadSession(ctx context.Context, store blob.Store, sessionID string) (Session, error) {
	var sess Session
	found, err := blob.GetJSON(ctx, store, sessionKey(sessionID), &sess)
	if err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if !found || !sess.Step.IsValid() {
		sess.Step = enums.CheckoutStepShipping
	}
	return sess, nil
}

func (s *service) saveStep(ctx context.Context, store blob.Store, sessionID string, step enums.CheckoutStep) error {
	sess := Session{Step: step, UpdatedAt: s.clock().UTC()}
	if err := blob.PutJSON(ctx, store, sessionKey(sessionID), sess); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	return nil
}

func (s *service) loadCoupon(ctx context.Context, store blob.Store, sessionID string) (*pricing.Coupon, error) {
	var coupon pricing.Coupon
	found, err := blob.GetJSON(ctx, store, blob.SessionKey(sessionID, blob.KeyAppliedCoupon), &coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !found {
		return nil, nil
	}
	return &coupon, nil
}

func sessionKey(sessionID string) string {
	return blob.SessionKey(sessionID, blob.KeyCheckoutSession)
}

func requireSession(sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}

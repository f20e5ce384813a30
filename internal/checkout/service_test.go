package checkout

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	"github.com/angelmondragon/suuq-marketplace/pkg/db"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const session = "sess-checkout"

var now = time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)

type harness struct {
	svc    Service
	store  blob.Store
	slept  []time.Duration
	logBuf *bytes.Buffer
}

func newHarness(t *testing.T, store blob.Store) *harness {
	t.Helper()
	if store == nil {
		store = blob.NewMemoryStore()
	}
	h := &harness{store: store, logBuf: &bytes.Buffer{}}
	svc, err := NewService(ServiceParams{
		Store:  store,
		Locker: blob.NewLocker(),
		Policy: pricing.DefaultPolicy(),
		Logger: logger.New(logger.Options{ServiceName: "checkout-test", Output: h.logBuf}),
		Delay:  1500 * time.Millisecond,
		Clock:  func() time.Time { return now },
		Sleep:  func(d time.Duration) { h.slept = append(h.slept, d) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) fillCart(t *testing.T, productID int64, qty int) {
	t.Helper()
	var product catalog.Product
	for _, p := range catalog.SeedProducts() {
		if p.ID == productID {
			product = p
		}
	}
	ledger, err := cart.Load(context.Background(), h.store, session)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	ledger.Add(product, qty, now)
	if err := cart.Save(context.Background(), h.store, session, ledger); err != nil {
		t.Fatalf("save cart: %v", err)
	}
}

func validShipping() ShippingInput {
	return ShippingInput{
		FullName: "Hodan Ali",
		Email:    "hodan@example.com",
		Phone:    "+252 61 000 0000",
		Address:  "Maka Al Mukarama Rd",
		City:     "Muqdisho",
		Country:  "Somalia",
	}
}

func validCard() PaymentInput {
	return PaymentInput{
		Method:      "card",
		CardNumber:  "4111 1111 1111 1111",
		Expiry:      "12/27",
		CVV:         "123",
		CardName:    "Hodan Ali",
		AcceptTerms: true,
	}
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	return details
}

func TestFreshSessionStartsAtShipping(t *testing.T) {
	h := newHarness(t, nil)

	state, err := h.svc.State(context.Background(), session)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Step != enums.CheckoutStepShipping {
		t.Fatalf("expected shipping step, got %s", state.Step)
	}
	if state.ShippingInfo != nil || state.PaymentInfo != nil {
		t.Fatalf("expected empty inputs")
	}
}

func TestSubmitShippingValidation(t *testing.T) {
	h := newHarness(t, nil)

	in := validShipping()
	in.City = " "
	in.Email = "not-an-email"
	_, err := h.svc.SubmitShipping(context.Background(), session, in)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := detailsOf(t, err)
	if details["city"] != "is required" || details["email"] != "must be a valid email" {
		t.Fatalf("unexpected details %v", details)
	}

	state, err := h.svc.SubmitShipping(context.Background(), session, validShipping())
	if err != nil {
		t.Fatalf("submit shipping: %v", err)
	}
	if state.Step != enums.CheckoutStepPayment {
		t.Fatalf("expected payment step, got %s", state.Step)
	}
	if state.ShippingInfo == nil || state.ShippingInfo.City != "Muqdisho" {
		t.Fatalf("shipping info not stored")
	}
}

func TestSubmitPaymentGates(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.svc.SubmitPayment(ctx, session, validCard()); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("payment before shipping must be a state conflict, got %v", err)
	}
	if _, err := h.svc.SubmitShipping(ctx, session, validShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if _, err := h.svc.SubmitPayment(ctx, session, validCard()); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("payment with empty cart must be a state conflict, got %v", err)
	}

	h.fillCart(t, 1, 2)

	bad := validCard()
	bad.CardNumber = "4111 1111 1111 1112"
	bad.Expiry = "01/24"
	bad.AcceptTerms = false
	_, err := h.svc.SubmitPayment(ctx, session, bad)
	details := detailsOf(t, err)
	for _, field := range []string{"cardNumber", "expiry", "acceptTerms"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected %s detail, got %v", field, details)
		}
	}

	mobile := PaymentInput{Method: "mobile", MobileNumber: "615000000", AcceptTerms: true}
	details = detailsOf(t, func() error { _, err := h.svc.SubmitPayment(ctx, session, mobile); return err }())
	if details["mobileOperator"] != "is required" {
		t.Fatalf("unexpected mobile details %v", details)
	}
}

func TestSubmitPaymentMasksCard(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fillCart(t, 1, 2)

	if _, err := h.svc.SubmitShipping(ctx, session, validShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	state, err := h.svc.SubmitPayment(ctx, session, validCard())
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if state.Step != enums.CheckoutStepReview {
		t.Fatalf("expected review step, got %s", state.Step)
	}
	if state.PaymentInfo.CardNumber != "************1111" {
		t.Fatalf("unexpected masked number %q", state.PaymentInfo.CardNumber)
	}

	raw, err := h.store.Get(ctx, blob.SessionKey(session, blob.KeyPaymentInfo))
	if err != nil {
		t.Fatalf("get payment blob: %v", err)
	}
	if strings.Contains(string(raw), "4111111111111111") || strings.Contains(string(raw), "123") {
		t.Fatalf("payment blob leaks card data: %s", raw)
	}

	var summary orders.Summary
	found, err := blob.GetJSON(ctx, h.store, blob.SessionKey(session, blob.KeyOrderSummary), &summary)
	if err != nil || !found {
		t.Fatalf("order summary not stored: %v", err)
	}
	if !summary.Summary.Total.Equal(decimal.RequireFromString("15.58")) {
		t.Fatalf("unexpected reviewed total %s", summary.Summary.Total)
	}
}

func TestApplyCouponOncePerSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fillCart(t, 1, 2)

	if _, err := h.svc.ApplyCoupon(ctx, session, "bogus"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	state, err := h.svc.ApplyCoupon(ctx, session, "save5")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !state.Summary.Discount.Equal(decimal.NewFromInt(5)) || !state.Summary.Total.Equal(decimal.RequireFromString("10.58")) {
		t.Fatalf("unexpected summary %+v", state.Summary)
	}
	if _, err := h.svc.ApplyCoupon(ctx, session, "WELCOME10"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("second coupon must conflict, got %v", err)
	}
}

func TestApplyCouponRefreshesReviewedSummary(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.fillCart(t, 1, 2)

	if _, err := h.svc.SubmitShipping(ctx, session, validShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if _, err := h.svc.SubmitPayment(ctx, session, validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := h.svc.ApplyCoupon(ctx, session, "FREESHIP"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var summary orders.Summary
	if _, err := blob.GetJSON(ctx, h.store, blob.SessionKey(session, blob.KeyOrderSummary), &summary); err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if summary.Coupon == nil || !summary.Summary.Discount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("reviewed summary not refreshed: %+v", summary)
	}
}

func TestPlaceOrderRequiresReview(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.PlaceOrder(context.Background(), session)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(h.slept) != 0 {
		t.Fatalf("rejected placement must not wait")
	}
}

func runToReview(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	h.fillCart(t, 1, 2)
	if _, err := h.svc.SubmitShipping(ctx, session, validShipping()); err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if _, err := h.svc.ApplyCoupon(ctx, session, "SAVE5"); err != nil {
		t.Fatalf("coupon: %v", err)
	}
	if _, err := h.svc.SubmitPayment(ctx, session, validCard()); err != nil {
		t.Fatalf("payment: %v", err)
	}
}

func assertPlaced(t *testing.T, h *harness, placement Placement) {
	t.Helper()
	ctx := context.Background()

	order := placement.Order
	wantID := fmt.Sprintf("ORD%08d", now.UnixMilli()%100_000_000)
	if order.ID != wantID {
		t.Fatalf("expected id %s, got %s", wantID, order.ID)
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", order.Status)
	}
	if !order.OrderSummary.Summary.Total.Equal(decimal.RequireFromString("10.58")) {
		t.Fatalf("unexpected total %s", order.OrderSummary.Summary.Total)
	}
	if order.PaymentInfo.CardNumber != "************1111" {
		t.Fatalf("card not masked: %s", order.PaymentInfo.CardNumber)
	}

	history, err := orders.Load(ctx, h.store, session)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected one stored order, got %d (%v)", len(history), err)
	}
	ledger, err := cart.Load(ctx, h.store, session)
	if err != nil || len(ledger) != 0 {
		t.Fatalf("expected empty cart after placement, got %+v (%v)", ledger, err)
	}
	state, err := h.svc.State(ctx, session)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Step != enums.CheckoutStepShipping || state.Coupon != nil {
		t.Fatalf("expected reset session, got %+v", state)
	}
	if state.ShippingInfo == nil {
		t.Fatalf("shipping info should remain as the last input")
	}
}

func TestPlaceOrderFinalizes(t *testing.T) {
	h := newHarness(t, nil)
	runToReview(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	placement, err := h.svc.PlaceOrder(ctx, session)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if len(h.slept) != 1 || h.slept[0] != 1500*time.Millisecond {
		t.Fatalf("expected one configured delay, got %v", h.slept)
	}
	assertPlaced(t, h, placement)

	if _, err := h.svc.PlaceOrder(context.Background(), session); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second placement must be rejected, got %v", err)
	}
	if !strings.Contains(h.logBuf.String(), "order placed") {
		t.Fatalf("expected placement log, got %s", h.logBuf.String())
	}
}

func TestPlaceOrderOnSQLStore(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:checkout_place?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&blob.Record{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	h := newHarness(t, blob.NewSQLStore(conn, db.NewFromConn(conn)))
	runToReview(t, h)

	placement, err := h.svc.PlaceOrder(context.Background(), session)
	require.NoError(t, err)
	assertPlaced(t, h, placement)
}

func TestNextOrderIDSkipsCollisions(t *testing.T) {
	at := time.UnixMilli(1_760_000_012_345)
	first := nextOrderID(at, nil)
	if first != "ORD00012345" {
		t.Fatalf("unexpected id %s", first)
	}
	second := nextOrderID(at, []orders.Order{{ID: first}})
	if second != "ORD00012346" {
		t.Fatalf("expected bumped id, got %s", second)
	}
}

func TestPlaceOrderRejectsCartChangedAfterReview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	runToReview(t, h)
	h.fillCart(t, 3, 1)

	_, err := h.svc.PlaceOrder(ctx, session)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(h.slept) != 0 {
		t.Fatalf("rejected placement must not wait")
	}
	history, err := orders.Load(ctx, h.store, session)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected no stored orders, got %d (%v)", len(history), err)
	}
	state, err := h.svc.State(ctx, session)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Step != enums.CheckoutStepPayment {
		t.Fatalf("expected step back to payment, got %s", state.Step)
	}

	reviewed, err := h.svc.SubmitPayment(ctx, session, validCard())
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	placement, err := h.svc.PlaceOrder(ctx, session)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if got := placement.Order.OrderSummary.Items.Count(); got != 3 {
		t.Fatalf("expected 3 units in the placed order, got %d", got)
	}
	if !placement.Order.OrderSummary.Summary.Total.Equal(reviewed.Summary.Total) {
		t.Fatalf("placed total %s differs from reviewed total %s",
			placement.Order.OrderSummary.Summary.Total, reviewed.Summary.Total)
	}
}

func TestPlaceOrderUsesReviewedSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	runToReview(t, h)

	// Price drift on the cart line after review must not reach the order.
	ledger, err := cart.Load(ctx, h.store, session)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	ledger[0].Product.Price = decimal.RequireFromString("999.99")
	if err := cart.Save(ctx, h.store, session, ledger); err != nil {
		t.Fatalf("save cart: %v", err)
	}

	placement, err := h.svc.PlaceOrder(ctx, session)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	assertPlaced(t, h, placement)
}

package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/internal/payments"
	"github.com/muraqqa/storefront/internal/shipping"
	pkgcheckout "github.com/muraqqa/storefront/pkg/checkout"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
	"github.com/muraqqa/storefront/pkg/metrics"
)

// ErrSubmissionInFlight is returned while an order creation or payment
// confirmation for the session has not finished.
var ErrSubmissionInFlight = pkgerrors.New(pkgerrors.CodeConflict, "checkout submission already in progress")

// Deps are the collaborators shared by every session.
type Deps struct {
	Auth     AuthProvider
	Carts    CartStore
	Orders   OrderProvider
	Payments PaymentProvider
	Shipping ShippingQuoter
	Rules    Rules
	Currency string
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

func (d *Deps) validate() error {
	switch {
	case d.Auth == nil:
		return fmt.Errorf("auth provider required")
	case d.Carts == nil:
		return fmt.Errorf("cart store required")
	case d.Orders == nil:
		return fmt.Errorf("order provider required")
	case d.Shipping == nil:
		return fmt.Errorf("shipping quoter required")
	case strings.TrimSpace(d.Currency) == "":
		return fmt.Errorf("currency required")
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return nil
}

func (d *Deps) defaultMethod() enums.PaymentMethod {
	if d.Payments == nil {
		return enums.PaymentMethodBankTransfer
	}
	return enums.PaymentMethodCard
}

// checkMethod rejects card payments when no payment provider is configured.
func (d *Deps) checkMethod(method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(map[string]string{
			"paymentMethod": "is invalid",
		})
	}
	if method == enums.PaymentMethodCard && d.Payments == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card payments are not available").WithDetails(map[string]string{
			"paymentMethod": "card payments are not available",
		})
	}
	return nil
}

// ShippingInput is what the shopper edits on the shipping step.
type ShippingInput struct {
	Details       pkgcheckout.ShippingDetails
	RateID        string
	PaymentMethod enums.PaymentMethod
	PromoCode     string
}

// PaymentResult is the outcome reported by the card confirmation callback.
type PaymentResult struct {
	Success      bool
	ErrorMessage string
	IntentID     string
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID             uuid.UUID                   `json:"id"`
	Step           enums.CheckoutStep          `json:"step"`
	Error          *string                     `json:"error"`
	Submitting     bool                        `json:"submitting"`
	Lines          []cart.Line                 `json:"lines"`
	Details        pkgcheckout.ShippingDetails `json:"shippingDetails"`
	Rates          []shipping.Rate             `json:"shippingRates"`
	RateID         string                      `json:"selectedShippingRateId,omitempty"`
	PaymentMethod  enums.PaymentMethod         `json:"paymentMethod"`
	PromoCode      string                      `json:"promoCode,omitempty"`
	PromoApplied   bool                        `json:"promoApplied"`
	PendingOrderID *uuid.UUID                  `json:"pendingOrderId"`
	Totals         Totals                      `json:"totals"`
	OrderTotals    *Totals                     `json:"orderTotals,omitempty"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// Session drives one shopper through cart, shipping, payment and success.
// Every exported method is safe for concurrent use.
type Session struct {
	id   uuid.UUID
	deps *Deps

	inFlight atomic.Bool

	mu            sync.Mutex
	step          enums.CheckoutStep
	owner         uuid.UUID
	cart          *cart.Aggregate
	details       pkgcheckout.ShippingDetails
	rates         []shipping.Rate
	quotedCountry string
	rateID        string
	method        enums.PaymentMethod
	promo         string
	pendingOrder  *uuid.UUID
	pendingKey    string
	placed        *Totals
	intent        *payments.Intent
	err           string
	updatedAt     time.Time
}

func newSession(deps *Deps) *Session {
	return &Session{
		id:        uuid.New(),
		deps:      deps,
		step:      enums.CheckoutStepCart,
		cart:      cart.NewAggregate(),
		method:    deps.defaultMethod(),
		updatedAt: deps.Clock(),
	}
}

// NewSession starts a session at the cart step.
func NewSession(deps Deps) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return newSession(&deps), nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Owner is the shopper who proceeded past the cart, or uuid.Nil before that.
func (s *Session) Owner() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

func (s *Session) Step() enums.CheckoutStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Err returns the message left by the last failed provider call.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cart returns the session's copy of the cart.
func (s *Session) Cart() *cart.Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

func (s *Session) lastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Proceed moves from the cart to shipping once the shopper is signed in.
// Anonymous shoppers get an AUTH_REQUIRED error carrying the login URL.
func (s *Session) Proceed(ctx context.Context) error {
	identity, ok := s.deps.Auth.Identify(ctx)
	if !ok {
		s.deps.Logger.Info(s.logCtx(ctx), "checkout requires sign in")
		return pkgerrors.New(pkgerrors.CodeAuthRequired, "sign in to continue").WithDetails(map[string]any{
			"redirectTo": s.deps.Auth.LoginURL(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight.Load() {
		return ErrSubmissionInFlight
	}
	if s.step != enums.CheckoutStepCart {
		return s.stepConflict(enums.CheckoutStepCart)
	}
	if s.owner != uuid.Nil && s.owner != identity.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "checkout session belongs to another shopper")
	}

	loaded, err := s.deps.Carts.Get(ctx, identity.UserID)
	if err != nil {
		s.deps.Metrics.IncFailure(string(s.step), "cart")
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if loaded == nil || loaded.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	s.owner = identity.UserID
	s.cart = loaded
	s.err = ""
	s.moveLocked(enums.CheckoutStepShipping)
	return nil
}

// UpdateShipping stores the shipping form. A selected rate must belong to the
// quote for the entered country; the quote is refreshed when the country changed.
func (s *Session) UpdateShipping(ctx context.Context, input ShippingInput) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	details := input.Details.Normalize()
	method := input.PaymentMethod
	if method == "" {
		method = s.deps.defaultMethod()
	}
	if err := s.deps.checkMethod(method); err != nil {
		return err
	}
	promo := strings.TrimSpace(input.PromoCode)
	if promo != "" && !s.deps.Rules.Recognizes(promo) {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo code not recognized").WithDetails(map[string]string{
			"promoCode": "is not recognized",
		})
	}
	rateID := strings.TrimSpace(input.RateID)

	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	needsQuote := rateID != "" && !strings.EqualFold(s.quotedCountry, details.Country)
	items := s.itemCountLocked()
	s.mu.Unlock()

	if needsQuote {
		if err := s.refreshRates(ctx, details.Country, items); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if rateID != "" {
		if _, ok := shipping.Find(s.rates, rateID); !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping rate not available").WithDetails(map[string]string{
				"rateId": "is not available for this destination",
			})
		}
	}
	if !strings.EqualFold(s.quotedCountry, details.Country) {
		s.rates = nil
		s.quotedCountry = ""
	}
	s.details = details
	s.rateID = rateID
	s.method = method
	s.promo = promo
	s.touchLocked()
	return nil
}

// QuoteRates fetches shipping options for the entered country. On failure the
// previous quote is kept.
func (s *Session) QuoteRates(ctx context.Context) ([]shipping.Rate, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.step != enums.CheckoutStepShipping {
		defer s.mu.Unlock()
		return nil, s.stepConflict(enums.CheckoutStepShipping)
	}
	country := s.details.Country
	items := s.itemCountLocked()
	s.mu.Unlock()

	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country required for shipping quote").WithDetails(map[string]string{
			"country": "is required",
		})
	}
	if err := s.refreshRates(ctx, country, items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shipping.Rate(nil), s.rates...), nil
}

func (s *Session) refreshRates(ctx context.Context, country string, items int) error {
	rates, err := s.deps.Shipping.Quote(ctx, shipping.QuoteRequest{Country: country, Items: items})
	if err != nil {
		s.deps.Metrics.IncFailure(string(enums.CheckoutStepShipping), "quote")
		s.deps.Logger.Warn(s.logCtx(ctx), fmt.Sprintf("shipping quote failed: %v", err))
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping quote failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates
	s.quotedCountry = country
	if _, ok := shipping.Find(rates, s.rateID); !ok {
		s.rateID = ""
	}
	s.touchLocked()
	return nil
}

// Totals computes the live totals for the current cart and shipping form.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

func (s *Session) totalsLocked() Totals {
	var shippingPrice int64
	if rate, ok := shipping.Find(s.rates, s.rateID); ok {
		shippingPrice = rate.Price
	}
	return s.deps.Rules.Compute(s.cart.Subtotal(), shippingPrice, s.details.Country, s.promo)
}

// SubmitShipping validates the shipping step and creates the order. Bank
// transfers finish immediately and empty the cart; card payments continue to
// the payment step. Concurrent calls are rejected with ErrSubmissionInFlight.
func (s *Session) SubmitShipping(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.deps.Metrics.IncDuplicateRejected()
		return ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.step != enums.CheckoutStepShipping {
		defer s.mu.Unlock()
		return s.stepConflict(enums.CheckoutStepShipping)
	}
	if err := pkgcheckout.ValidateShipping(s.details, s.rateID); err != nil {
		s.mu.Unlock()
		s.deps.Metrics.IncFailure(string(enums.CheckoutStepShipping), "validation")
		return err
	}
	if err := s.deps.checkMethod(s.method); err != nil {
		s.mu.Unlock()
		s.deps.Metrics.IncFailure(string(enums.CheckoutStepShipping), "validation")
		return err
	}
	rate, ok := shipping.Find(s.rates, s.rateID)
	if !ok {
		s.mu.Unlock()
		s.deps.Metrics.IncFailure(string(enums.CheckoutStepShipping), "validation")
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping rate not available").WithDetails(map[string]string{
			"rateId": "is not available for this destination",
		})
	}
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	totals := s.totalsLocked()
	draft := s.draftLocked(rate, totals)
	key := draftKey(draft)
	previous := s.pendingOrder
	reuse := previous != nil && s.pendingKey == key
	owner := s.owner
	method := s.method
	s.mu.Unlock()

	ctx = s.logCtx(ctx)
	orderID := uuid.Nil
	if reuse {
		orderID = *previous
		s.deps.Logger.Info(s.deps.Logger.WithOrderID(ctx, orderID.String()), "reusing pending order")
	} else {
		if previous != nil {
			if err := s.deps.Orders.Cancel(ctx, *previous); err != nil {
				return s.failBlocking(ctx, enums.CheckoutStepShipping, "order", "could not replace the previous order", err)
			}
			s.deps.Logger.Info(s.deps.Logger.WithOrderID(ctx, previous.String()), "canceled superseded pending order")
		}
		created, err := s.deps.Orders.Create(ctx, draft)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				s.deps.Metrics.IncFailure(string(enums.CheckoutStepShipping), "validation")
				return err
			}
			return s.failBlocking(ctx, enums.CheckoutStepShipping, "order", "could not place the order", err)
		}
		orderID = created
	}

	s.mu.Lock()
	s.pendingOrder = &orderID
	s.pendingKey = key
	s.placed = &totals
	if !reuse {
		s.intent = nil
	}
	if s.step != enums.CheckoutStepShipping {
		// The order stays pending and an unchanged resubmission picks it up.
		defer s.mu.Unlock()
		return s.stepConflict(enums.CheckoutStepShipping)
	}
	s.err = ""
	if method == enums.PaymentMethodBankTransfer {
		s.cart.Clear()
		s.moveLocked(enums.CheckoutStepSuccess)
		s.mu.Unlock()
		s.clearRemoteCart(ctx, owner)
		return nil
	}
	s.moveLocked(enums.CheckoutStepPayment)
	s.mu.Unlock()
	return nil
}

// CreatePaymentIntent prepares the card payment for the pending order. The
// intent is created once per order and returned again on later calls.
func (s *Session) CreatePaymentIntent(ctx context.Context) (payments.Intent, error) {
	if s.deps.Payments == nil {
		return payments.Intent{}, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not available")
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.deps.Metrics.IncDuplicateRejected()
		return payments.Intent{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.authorize(ctx); err != nil {
		return payments.Intent{}, err
	}

	s.mu.Lock()
	if s.step != enums.CheckoutStepPayment {
		defer s.mu.Unlock()
		return payments.Intent{}, s.stepConflict(enums.CheckoutStepPayment)
	}
	if s.intent != nil {
		intent := *s.intent
		s.mu.Unlock()
		return intent, nil
	}
	orderID := *s.pendingOrder
	amount := s.placed.Total
	s.mu.Unlock()

	ctx = s.deps.Logger.WithOrderID(s.logCtx(ctx), orderID.String())
	intent, err := s.deps.Payments.CreateIntent(ctx, orderID, amount, s.deps.Currency)
	if err != nil {
		return payments.Intent{}, s.failBlocking(ctx, enums.CheckoutStepPayment, "payment", "could not start the card payment", err)
	}
	if err := s.deps.Orders.AttachPaymentIntent(ctx, orderID, intent.ID); err != nil {
		s.deps.Logger.Warn(ctx, fmt.Sprintf("attach payment intent failed: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = &intent
	s.err = ""
	s.touchLocked()
	return intent, nil
}

// ConfirmPayment applies the card confirmation callback. A failed payment
// leaves the session on the payment step with the error set so the shopper
// can retry.
func (s *Session) ConfirmPayment(ctx context.Context, result PaymentResult) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.deps.Metrics.IncDuplicateRejected()
		return ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.step != enums.CheckoutStepPayment {
		defer s.mu.Unlock()
		return s.stepConflict(enums.CheckoutStepPayment)
	}
	if s.intent == nil {
		defer s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "card payment has not been started")
	}
	orderID := *s.pendingOrder
	owner := s.owner
	intentID := s.intent.ID
	s.mu.Unlock()

	if claimed := strings.TrimSpace(result.IntentID); claimed != "" && claimed != intentID {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment does not belong to this order").WithDetails(map[string]string{
			"intentId": "does not match the order's payment",
		})
	}

	ctx = s.deps.Logger.WithOrderID(s.logCtx(ctx), orderID.String())
	if !result.Success {
		message := strings.TrimSpace(result.ErrorMessage)
		if message == "" {
			message = "payment was not completed"
		}
		return s.failBlocking(ctx, enums.CheckoutStepPayment, "payment", message, nil)
	}

	if s.deps.Payments == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "card payments are not available")
	}
	confirmed, err := s.deps.Payments.Confirmed(ctx, intentID)
	if err != nil {
		return s.failBlocking(ctx, enums.CheckoutStepPayment, "payment", "could not verify the payment", err)
	}
	if !confirmed {
		return s.failBlocking(ctx, enums.CheckoutStepPayment, "payment", "payment has not completed yet", nil)
	}
	if err := s.deps.Orders.MarkPaid(ctx, orderID, intentID); err != nil {
		return s.failBlocking(ctx, enums.CheckoutStepPayment, "order", "could not record the payment", err)
	}

	s.mu.Lock()
	s.err = ""
	s.cart.Clear()
	s.moveLocked(enums.CheckoutStepSuccess)
	s.mu.Unlock()
	s.clearRemoteCart(ctx, owner)
	return nil
}

// Back navigates payment to shipping and shipping to cart. A pending order
// stays pending; the next submission reuses or replaces it.
func (s *Session) Back(ctx context.Context) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight.Load() {
		return ErrSubmissionInFlight
	}

	var target enums.CheckoutStep
	switch s.step {
	case enums.CheckoutStepPayment:
		target = enums.CheckoutStepShipping
	case enums.CheckoutStepShipping:
		target = enums.CheckoutStepCart
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot go back from %s", s.step))
	}
	s.err = ""
	s.moveLocked(target)
	return nil
}

// Snapshot returns a copy of the session state with live totals.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.id,
		Step:          s.step,
		Submitting:    s.inFlight.Load(),
		Lines:         s.cart.Lines(),
		Details:       s.details,
		Rates:         append([]shipping.Rate{}, s.rates...),
		RateID:        s.rateID,
		PaymentMethod: s.method,
		PromoCode:     s.promo,
		PromoApplied:  s.promo != "" && s.deps.Rules.Recognizes(s.promo),
		Totals:        s.totalsLocked(),
		UpdatedAt:     s.updatedAt,
	}
	if s.err != "" {
		message := s.err
		snap.Error = &message
	}
	if s.pendingOrder != nil {
		id := *s.pendingOrder
		snap.PendingOrderID = &id
	}
	if s.placed != nil {
		placed := *s.placed
		snap.OrderTotals = &placed
	}
	return snap
}

func (s *Session) authorize(ctx context.Context) error {
	identity, ok := s.deps.Auth.Identify(ctx)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeAuthRequired, "sign in to continue").WithDetails(map[string]any{
			"redirectTo": s.deps.Auth.LoginURL(),
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == uuid.Nil {
		return s.stepConflict(enums.CheckoutStepShipping)
	}
	if s.owner != identity.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "checkout session belongs to another shopper")
	}
	return nil
}

// failBlocking records a provider failure on the session and returns it.
func (s *Session) failBlocking(ctx context.Context, step enums.CheckoutStep, kind, message string, cause error) error {
	s.deps.Metrics.IncFailure(string(step), kind)
	s.deps.Logger.Error(ctx, message, cause)

	s.mu.Lock()
	s.err = message
	s.touchLocked()
	s.mu.Unlock()

	if typed := pkgerrors.As(cause); typed != nil && typed.Code() != pkgerrors.CodeDependency && typed.Code() != pkgerrors.CodeInternal {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, message)
}

func (s *Session) clearRemoteCart(ctx context.Context, owner uuid.UUID) {
	if err := s.deps.Carts.Clear(ctx, owner); err != nil {
		s.deps.Logger.Warn(ctx, fmt.Sprintf("clearing cart after checkout failed: %v", err))
	}
}

func (s *Session) moveLocked(to enums.CheckoutStep) {
	from := s.step
	s.step = to
	s.touchLocked()
	s.deps.Metrics.IncTransition(string(from), string(to))
}

func (s *Session) touchLocked() {
	s.updatedAt = s.deps.Clock()
}

// editableLocked reports whether the shipping form may change. Submissions
// set inFlight before reading the form under mu, so the check must hold mu.
func (s *Session) editableLocked() error {
	if s.inFlight.Load() {
		return ErrSubmissionInFlight
	}
	if s.step != enums.CheckoutStepShipping {
		return s.stepConflict(enums.CheckoutStepShipping)
	}
	return nil
}

func (s *Session) stepConflict(expected enums.CheckoutStep) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout is at %s, expected %s", s.step, expected)).WithDetails(map[string]any{
		"step":     s.step,
		"expected": expected,
	})
}

func (s *Session) itemCountLocked() int {
	total := 0
	for _, line := range s.cart.Lines() {
		total += line.Quantity
	}
	return total
}

func (s *Session) logCtx(ctx context.Context) context.Context {
	return s.deps.Logger.WithSessionID(ctx, s.id.String())
}

func (s *Session) draftLocked(rate shipping.Rate, totals Totals) orders.Draft {
	lines := s.cart.Lines()
	draftLines := make([]orders.DraftLine, 0, len(lines))
	for _, line := range lines {
		draftLines = append(draftLines, orders.DraftLine{
			ProductID:     line.ProductID,
			UnitReference: line.UnitReference,
			Title:         line.Title,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			FinalPrice:    line.FinalPrice,
		})
	}
	promo := ""
	if s.deps.Rules.Recognizes(s.promo) {
		promo = normalizePromo(s.promo)
	}
	return orders.Draft{
		UserID:        s.owner,
		PaymentMethod: s.method,
		Shipping: orders.ShippingInfo{
			FullName:   s.details.FullName,
			Phone:      s.details.Phone,
			Address:    s.details.Address,
			City:       s.details.City,
			PostalCode: s.details.PostalCode,
			Country:    s.details.Country,
			RateID:     rate.ID,
			Provider:   rate.Provider,
			Service:    rate.Service,
		},
		PromoCode: promo,
		Currency:  s.deps.Currency,
		Lines:     draftLines,
		Amounts: orders.Amounts{
			Subtotal: totals.Subtotal,
			Shipping: totals.Shipping,
			Discount: totals.Discount,
			Tax:      totals.Tax,
			Total:    totals.Total,
		},
	}
}

// draftKey identifies a draft's content so an unchanged resubmission can
// reuse the order created before the shopper navigated back.
func draftKey(draft orders.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%d|%d|%d|%d|%d",
		draft.PaymentMethod, draft.PromoCode, draft.Currency, draft.Shipping.RateID,
		draft.Amounts.Subtotal, draft.Amounts.Shipping, draft.Amounts.Discount, draft.Amounts.Tax, draft.Amounts.Total)
	s := draft.Shipping
	fmt.Fprintf(&b, "|%q|%q|%q|%q|%q|%q", s.FullName, s.Phone, s.Address, s.City, s.PostalCode, s.Country)
	for _, line := range draft.Lines {
		fmt.Fprintf(&b, "|%s/%q/%d/%d", line.ProductID, line.UnitReference, line.Quantity, line.UnitPrice)
	}
	return b.String()
}

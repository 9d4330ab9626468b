package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/internal/payments"
	"github.com/muraqqa/storefront/internal/shipping"
	pkgcheckout "github.com/muraqqa/storefront/pkg/checkout"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/metrics"
)

type stubAuth struct {
	mu       sync.Mutex
	identity Identity
	ok       bool
	gate     chan struct{}
	held     chan struct{}
}

func (s *stubAuth) Identify(context.Context) (Identity, bool) {
	s.mu.Lock()
	identity, ok, gate, held := s.identity, s.ok, s.gate, s.held
	s.gate = nil
	s.mu.Unlock()
	if gate != nil {
		held <- struct{}{}
		<-gate
	}
	return identity, ok
}

// holdNext parks the next Identify call until the returned channel is closed.
func (s *stubAuth) holdNext() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.held = make(chan struct{}, 1)
	return s.gate
}

func (s *stubAuth) LoginURL() string { return "/login?next=/checkout" }

func (s *stubAuth) signIn(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = Identity{UserID: id, Email: "shopper@example.com"}
	s.ok = true
}

type stubCarts struct {
	mu      sync.Mutex
	lines   []cart.Line
	cleared []uuid.UUID
	err     error
}

func (s *stubCarts) Get(context.Context, uuid.UUID) (*cart.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return cart.NewAggregate(s.lines...), nil
}

func (s *stubCarts) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, userID)
	return nil
}

type stubOrders struct {
	mu       sync.Mutex
	created  []orders.Draft
	ids      []uuid.UUID
	canceled []uuid.UUID
	paid     []uuid.UUID
	attached map[uuid.UUID]string
	started  chan struct{}
	release  chan struct{}
	err      error
	paidErr  error
}

func (s *stubOrders) Create(ctx context.Context, draft orders.Draft) (uuid.UUID, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return uuid.Nil, s.err
	}
	id := uuid.New()
	s.created = append(s.created, draft)
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *stubOrders) Cancel(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = append(s.canceled, id)
	return nil
}

func (s *stubOrders) MarkPaid(_ context.Context, id uuid.UUID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paidErr != nil {
		return s.paidErr
	}
	s.paid = append(s.paid, id)
	return nil
}

func (s *stubOrders) AttachPaymentIntent(_ context.Context, id uuid.UUID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached == nil {
		s.attached = map[uuid.UUID]string{}
	}
	s.attached[id] = intentID
	return nil
}

func (s *stubOrders) createdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type stubPayments struct {
	mu        sync.Mutex
	intents   int
	amounts   []int64
	checked   []string
	confirmed bool
	err       error
}

func (s *stubPayments) CreateIntent(_ context.Context, _ uuid.UUID, amount int64, _ string) (payments.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return payments.Intent{}, s.err
	}
	s.intents++
	s.amounts = append(s.amounts, amount)
	return payments.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (s *stubPayments) Confirmed(_ context.Context, intentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, intentID)
	return s.confirmed, s.err
}

type stubQuoter struct {
	mu    sync.Mutex
	rates []shipping.Rate
	err   error
	calls int
}

func (s *stubQuoter) Quote(context.Context, shipping.QuoteRequest) ([]shipping.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]shipping.Rate(nil), s.rates...), nil
}

type harness struct {
	session  *Session
	auth     *stubAuth
	carts    *stubCarts
	orders   *stubOrders
	payments *stubPayments
	quoter   *stubQuoter
	registry *prometheus.Registry
	user     uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth: &stubAuth{},
		carts: &stubCarts{lines: []cart.Line{
			{ProductID: uuid.New(), Title: "Garden of Lahore", Quantity: 2, UnitPrice: 50000},
		}},
		orders:   &stubOrders{},
		payments: &stubPayments{confirmed: true},
		quoter: &stubQuoter{rates: []shipping.Rate{
			{ID: "tcs-standard", Provider: "TCS", Service: "Standard", Price: 2000, EstimatedDays: 3},
			{ID: "leopards-express", Provider: "Leopards", Service: "Express", Price: 3500, EstimatedDays: 1},
		}},
		registry: prometheus.NewRegistry(),
		user:     uuid.New(),
	}
	session, err := NewSession(Deps{
		Auth:     h.auth,
		Carts:    h.carts,
		Orders:   h.orders,
		Payments: h.payments,
		Shipping: h.quoter,
		Rules:    testRules(),
		Currency: "pkr",
		Metrics:  metrics.NewCheckoutMetrics(h.registry),
	})
	require.NoError(t, err)
	h.session = session
	return h
}

func lahoreDetails() pkgcheckout.ShippingDetails {
	return pkgcheckout.ShippingDetails{
		FullName: "Ayesha Khan",
		Address:  "House 12, Street 4, Gulberg",
		City:     "Lahore",
		Country:  "Pakistan",
	}
}

// atShipping signs in and fills a valid shipping form.
func (h *harness) atShipping(t *testing.T, method enums.PaymentMethod) {
	t.Helper()
	ctx := context.Background()
	h.auth.signIn(h.user)
	require.NoError(t, h.session.Proceed(ctx))
	require.NoError(t, h.session.UpdateShipping(ctx, ShippingInput{
		Details:       lahoreDetails(),
		RateID:        "tcs-standard",
		PaymentMethod: method,
		PromoCode:     "MURAQQA10",
	}))
}

func (h *harness) transitions(t *testing.T, from, to enums.CheckoutStep) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "checkout_transitions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelValue(metric, "from") == string(from) && labelValue(metric, "to") == string(to) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestNewSessionRequiresCollaborators(t *testing.T) {
	_, err := NewSession(Deps{})
	require.Error(t, err)
}

func TestProceedRequiresSignIn(t *testing.T) {
	h := newHarness(t)

	err := h.session.Proceed(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAuthRequired))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "/login?next=/checkout", details["redirectTo"])

	require.Equal(t, enums.CheckoutStepCart, h.session.Step())
	require.Empty(t, h.session.Err())
}

func TestProceedRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	h.carts.lines = nil
	h.auth.signIn(h.user)

	err := h.session.Proceed(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, enums.CheckoutStepCart, h.session.Step())
}

func TestProceedLoadsCart(t *testing.T) {
	h := newHarness(t)
	h.auth.signIn(h.user)

	require.NoError(t, h.session.Proceed(context.Background()))
	require.Equal(t, enums.CheckoutStepShipping, h.session.Step())
	require.Equal(t, h.user, h.session.Owner())
	require.Equal(t, int64(100000), h.session.Cart().Subtotal())
	require.Equal(t, float64(1), h.transitions(t, enums.CheckoutStepCart, enums.CheckoutStepShipping))
}

func TestOtherShopperCannotDriveSession(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)

	h.auth.signIn(uuid.New())
	err := h.session.SubmitShipping(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.Zero(t, h.orders.createdCount())
}

func TestTotalsDomesticScenario(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)

	require.Equal(t, Totals{Subtotal: 100000, Shipping: 2000, Discount: 10000, Tax: 0, Total: 92000}, h.session.Totals())
}

func TestTotalsInternationalScenario(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)

	details := lahoreDetails()
	details.City = "New York"
	details.Country = "USA"
	require.NoError(t, h.session.UpdateShipping(context.Background(), ShippingInput{
		Details:   details,
		RateID:    "tcs-standard",
		PromoCode: "MURAQQA10",
	}))

	require.Equal(t, Totals{Subtotal: 100000, Shipping: 2000, Discount: 10000, Tax: 5000, Total: 97000}, h.session.Totals())
}

func TestUpdateShippingRejectsUnknownPromoAndRate(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()

	err := h.session.UpdateShipping(ctx, ShippingInput{Details: lahoreDetails(), RateID: "tcs-standard", PromoCode: "FREE"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = h.session.UpdateShipping(ctx, ShippingInput{Details: lahoreDetails(), RateID: "pigeon"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	snap := h.session.Snapshot()
	require.Equal(t, "MURAQQA10", snap.PromoCode)
	require.True(t, snap.PromoApplied)
	require.Equal(t, "tcs-standard", snap.RateID)
}

func TestSubmitShippingValidatesWithoutCallingProvider(t *testing.T) {
	h := newHarness(t)
	h.auth.signIn(h.user)
	ctx := context.Background()
	require.NoError(t, h.session.Proceed(ctx))

	details := lahoreDetails()
	details.Address = "Gulberg"
	details.City = "L"
	require.NoError(t, h.session.UpdateShipping(ctx, ShippingInput{Details: details}))

	err := h.session.SubmitShipping(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	violations := pkgerrors.As(err).Details().(map[string]string)
	require.Contains(t, violations, "address")
	require.Contains(t, violations, "city")
	require.Contains(t, violations, "rateId")

	require.Zero(t, h.orders.createdCount())
	require.Equal(t, enums.CheckoutStepShipping, h.session.Step())
}

func TestCardSubmissionMovesToPayment(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)

	require.NoError(t, h.session.SubmitShipping(context.Background()))

	snap := h.session.Snapshot()
	require.Equal(t, enums.CheckoutStepPayment, snap.Step)
	require.NotNil(t, snap.PendingOrderID)
	require.Equal(t, h.orders.ids[0], *snap.PendingOrderID)
	require.Equal(t, int64(92000), snap.OrderTotals.Total)

	draft := h.orders.created[0]
	require.Equal(t, enums.PaymentMethodCard, draft.PaymentMethod)
	require.Equal(t, "MURAQQA10", draft.PromoCode)
	require.Equal(t, "TCS", draft.Shipping.Provider)
	require.Equal(t, int64(92000), draft.Amounts.Total)
	require.Len(t, draft.Lines, 1)
	require.Equal(t, int64(100000), h.session.Cart().Subtotal())
}

func TestDoubleSubmissionCreatesOneOrder(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	h.orders.started = make(chan struct{}, 1)
	h.orders.release = make(chan struct{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- h.session.SubmitShipping(ctx) }()
	<-h.orders.started

	err := h.session.SubmitShipping(ctx)
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	require.ErrorIs(t, h.session.Back(ctx), ErrSubmissionInFlight)
	require.ErrorIs(t, h.session.UpdateShipping(ctx, ShippingInput{Details: lahoreDetails()}), ErrSubmissionInFlight)
	require.True(t, h.session.Snapshot().Submitting)

	close(h.orders.release)
	require.NoError(t, <-first)

	require.Equal(t, 1, h.orders.createdCount())
	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())

	err = h.session.SubmitShipping(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, 1, h.orders.createdCount())
}

func TestConcurrentSubmissionsCreateAtMostOneOrder(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = h.session.SubmitShipping(ctx)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, h.orders.createdCount())
}

func TestBankTransferShortCircuitsToSuccess(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodBankTransfer)

	require.NoError(t, h.session.SubmitShipping(context.Background()))

	require.Equal(t, enums.CheckoutStepSuccess, h.session.Step())
	require.Equal(t, int64(0), h.session.Cart().Subtotal())
	require.True(t, h.session.Cart().IsEmpty())
	require.Equal(t, []uuid.UUID{h.user}, h.carts.cleared)
	require.Zero(t, h.payments.intents)
	require.Equal(t, float64(0), h.transitions(t, enums.CheckoutStepShipping, enums.CheckoutStepPayment))
	require.Equal(t, float64(1), h.transitions(t, enums.CheckoutStepShipping, enums.CheckoutStepSuccess))
	require.Equal(t, enums.PaymentMethodBankTransfer, h.orders.created[0].PaymentMethod)
}

func TestOrderCreationFailureStaysOnShipping(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	h.orders.err = errors.New("connection reset")
	ctx := context.Background()

	err := h.session.SubmitShipping(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.Equal(t, enums.CheckoutStepShipping, h.session.Step())
	require.Equal(t, "could not place the order", h.session.Err())

	h.orders.err = nil
	require.NoError(t, h.session.SubmitShipping(ctx))
	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())
	require.Empty(t, h.session.Err())
}

func TestPaymentFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))

	intent, err := h.session.CreatePaymentIntent(ctx)
	require.NoError(t, err)
	require.Equal(t, "pi_test_secret", intent.ClientSecret)
	require.Equal(t, []int64{92000}, h.payments.amounts)
	require.Equal(t, "pi_test", h.orders.attached[h.orders.ids[0]])

	again, err := h.session.CreatePaymentIntent(ctx)
	require.NoError(t, err)
	require.Equal(t, intent, again)
	require.Equal(t, 1, h.payments.intents)

	err = h.session.ConfirmPayment(ctx, PaymentResult{ErrorMessage: "Your card was declined."})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	snap := h.session.Snapshot()
	require.Equal(t, enums.CheckoutStepPayment, snap.Step)
	require.Equal(t, "Your card was declined.", *snap.Error)
	require.Equal(t, int64(100000), snap.Totals.Subtotal)

	require.NoError(t, h.session.ConfirmPayment(ctx, PaymentResult{Success: true}))
	require.Equal(t, enums.CheckoutStepSuccess, h.session.Step())
	require.Empty(t, h.session.Err())
	require.Equal(t, int64(0), h.session.Cart().Subtotal())
	require.Equal(t, h.orders.ids, h.orders.paid)
	require.Equal(t, []uuid.UUID{h.user}, h.carts.cleared)
}

func TestUnconfirmedIntentDoesNotComplete(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	h.payments.confirmed = false
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))
	_, err := h.session.CreatePaymentIntent(ctx)
	require.NoError(t, err)

	err = h.session.ConfirmPayment(ctx, PaymentResult{Success: true, IntentID: "pi_test"})
	require.Error(t, err)
	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())
	require.Equal(t, "payment has not completed yet", h.session.Err())
	require.Equal(t, []string{"pi_test"}, h.payments.checked)
	require.Empty(t, h.orders.paid)
}

func TestConfirmWithoutIntentDoesNotComplete(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))

	err := h.session.ConfirmPayment(ctx, PaymentResult{Success: true})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	err = h.session.ConfirmPayment(ctx, PaymentResult{Success: true, IntentID: "pi_someone_else"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())
	require.Empty(t, h.payments.checked)
	require.Empty(t, h.orders.paid)
	require.Empty(t, h.carts.cleared)
}

func TestConfirmRejectsIntentOfAnotherOrder(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))
	_, err := h.session.CreatePaymentIntent(ctx)
	require.NoError(t, err)

	err = h.session.ConfirmPayment(ctx, PaymentResult{Success: true, IntentID: "pi_someone_else"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())
	require.Empty(t, h.payments.checked)
	require.Empty(t, h.orders.paid)

	require.NoError(t, h.session.ConfirmPayment(ctx, PaymentResult{Success: true}))
	require.Equal(t, []string{"pi_test"}, h.payments.checked)
	require.Equal(t, h.orders.ids, h.orders.paid)
}

func TestCardRequiresPaymentProvider(t *testing.T) {
	h := newHarness(t)
	session, err := NewSession(Deps{
		Auth:     h.auth,
		Carts:    h.carts,
		Orders:   h.orders,
		Shipping: h.quoter,
		Rules:    testRules(),
		Currency: "pkr",
	})
	require.NoError(t, err)
	h.session = session
	ctx := context.Background()
	h.auth.signIn(h.user)
	require.NoError(t, session.Proceed(ctx))
	require.Equal(t, enums.PaymentMethodBankTransfer, session.Snapshot().PaymentMethod)

	err = session.UpdateShipping(ctx, ShippingInput{
		Details:       lahoreDetails(),
		RateID:        "tcs-standard",
		PaymentMethod: enums.PaymentMethodCard,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Contains(t, pkgerrors.As(err).Details().(map[string]string), "paymentMethod")

	require.NoError(t, session.UpdateShipping(ctx, ShippingInput{Details: lahoreDetails(), RateID: "tcs-standard"}))
	session.mu.Lock()
	session.method = enums.PaymentMethodCard
	session.mu.Unlock()

	err = session.SubmitShipping(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Zero(t, h.orders.createdCount())
	require.Equal(t, enums.CheckoutStepShipping, session.Step())

	session.mu.Lock()
	session.method = enums.PaymentMethodBankTransfer
	session.mu.Unlock()
	require.NoError(t, session.SubmitShipping(ctx))
	require.Equal(t, enums.CheckoutStepSuccess, session.Step())
	require.Empty(t, h.orders.paid)
}

func TestBackNavigation(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))

	require.NoError(t, h.session.Back(ctx))
	require.Equal(t, enums.CheckoutStepShipping, h.session.Step())
	require.NotNil(t, h.session.Snapshot().PendingOrderID)

	require.NoError(t, h.session.Back(ctx))
	require.Equal(t, enums.CheckoutStepCart, h.session.Step())

	err := h.session.Back(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestBackDuringSubmissionIsRejected(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	h.orders.started = make(chan struct{}, 1)
	h.orders.release = make(chan struct{})
	ctx := context.Background()

	gate := h.auth.holdNext()
	back := make(chan error, 1)
	go func() { back <- h.session.Back(ctx) }()
	<-h.auth.held

	submit := make(chan error, 1)
	go func() { submit <- h.session.SubmitShipping(ctx) }()
	<-h.orders.started

	close(gate)
	require.ErrorIs(t, <-back, ErrSubmissionInFlight)
	require.Equal(t, enums.CheckoutStepShipping, h.session.Step())

	close(h.orders.release)
	require.NoError(t, <-submit)
	require.Equal(t, enums.CheckoutStepPayment, h.session.Step())
	require.Equal(t, float64(0), h.transitions(t, enums.CheckoutStepShipping, enums.CheckoutStepCart))
	require.Equal(t, float64(0), h.transitions(t, enums.CheckoutStepCart, enums.CheckoutStepPayment))
}

func TestBackFromSuccessIsRejected(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodBankTransfer)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))

	err := h.session.Back(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, enums.CheckoutStepSuccess, h.session.Step())
}

func TestResubmitAfterBackReusesUnchangedOrder(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))
	require.NoError(t, h.session.Back(ctx))

	require.NoError(t, h.session.SubmitShipping(ctx))
	require.Equal(t, 1, h.orders.createdCount())
	require.Empty(t, h.orders.canceled)
	require.Equal(t, h.orders.ids[0], *h.session.Snapshot().PendingOrderID)
}

func TestResubmitAfterChangeReplacesOrder(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()
	require.NoError(t, h.session.SubmitShipping(ctx))
	require.NoError(t, h.session.Back(ctx))

	require.NoError(t, h.session.UpdateShipping(ctx, ShippingInput{
		Details:       lahoreDetails(),
		RateID:        "leopards-express",
		PaymentMethod: enums.PaymentMethodBankTransfer,
	}))
	require.NoError(t, h.session.SubmitShipping(ctx))

	require.Equal(t, 2, h.orders.createdCount())
	require.Equal(t, []uuid.UUID{h.orders.ids[0]}, h.orders.canceled)
	require.Equal(t, enums.CheckoutStepSuccess, h.session.Step())
	require.Equal(t, int64(103500), h.orders.created[1].Amounts.Total)
}

func TestQuoteFailureKeepsPreviousRates(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	ctx := context.Background()

	rates, err := h.session.QuoteRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	h.quoter.err = errors.New("carrier timeout")
	_, err = h.session.QuoteRates(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.True(t, pkgerrors.Retryable(err))

	snap := h.session.Snapshot()
	require.Len(t, snap.Rates, 2)
	require.Equal(t, "tcs-standard", snap.RateID)
	require.Nil(t, snap.Error)
}

func TestCountryChangeRequotes(t *testing.T) {
	h := newHarness(t)
	h.atShipping(t, enums.PaymentMethodCard)
	calls := h.quoter.calls

	details := lahoreDetails()
	details.Country = "UAE"
	require.NoError(t, h.session.UpdateShipping(context.Background(), ShippingInput{Details: details}))
	require.Equal(t, calls, h.quoter.calls)
	snap := h.session.Snapshot()
	require.Empty(t, snap.Rates)
	require.Empty(t, snap.RateID)

	require.NoError(t, h.session.UpdateShipping(context.Background(), ShippingInput{Details: details, RateID: "tcs-standard"}))
	require.Equal(t, calls+1, h.quoter.calls)
}

func TestSnapshotTracksUpdatedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	auth := &stubAuth{}
	session, err := NewSession(Deps{
		Auth:     auth,
		Carts:    &stubCarts{lines: []cart.Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: 100}}},
		Orders:   &stubOrders{},
		Shipping: &stubQuoter{},
		Rules:    testRules(),
		Currency: "pkr",
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)

	now = now.Add(time.Minute)
	auth.signIn(uuid.New())
	require.NoError(t, session.Proceed(context.Background()))
	require.Equal(t, now, session.Snapshot().UpdatedAt)

	_, err = session.CreatePaymentIntent(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

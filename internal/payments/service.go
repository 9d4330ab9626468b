package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
)

// Config is what the browser needs to render card entry.
type Config struct {
	Enabled   bool   `json:"enabled"`
	PublicKey string `json:"publicKey"`
}

// Intent is a created payment intent; only the client secret leaves the server.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// Service is the payment provider used by checkout.
type Service interface {
	GetConfig() Config
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (Intent, error)
	Confirmed(ctx context.Context, intentID string) (bool, error)
}

// zero-decimal currencies are charged in whole units.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

type service struct {
	client    IntentClient
	publicKey string
	logg      *logger.Logger
}

// NewService builds the payment service. A nil client yields a disabled provider.
func NewService(client IntentClient, publicKey string, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{client: client, publicKey: strings.TrimSpace(publicKey), logg: logg}
}

func (s *service) GetConfig() Config {
	if !s.enabled() {
		return Config{}
	}
	return Config{Enabled: true, PublicKey: s.publicKey}
}

func (s *service) CreateIntent(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (Intent, error) {
	if !s.enabled() {
		return Intent{}, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not available")
	}
	if orderID == uuid.Nil {
		return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amount <= 0 {
		return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return Intent{}, pkgerrors.New(pkgerrors.CodeValidation, "currency required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount, currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID.String())
	params.SetIdempotencyKey(fmt.Sprintf("order-%s-%d", orderID, amount))

	intent, err := s.client.Create(ctx, params)
	if err != nil {
		return Intent{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "payment intent created")
	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (s *service) Confirmed(ctx context.Context, intentID string) (bool, error) {
	if !s.enabled() {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not available")
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	intent, err := s.client.Get(ctx, intentID, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	return intent.Status == stripe.PaymentIntentStatusSucceeded, nil
}

func (s *service) enabled() bool {
	return s.client != nil && s.publicKey != ""
}

// MinorUnits converts a whole-unit amount into the smallest unit Stripe charges in.
func MinorUnits(amount int64, currency string) int64 {
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		return amount
	}
	return amount * 100
}

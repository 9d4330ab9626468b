package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/muraqqa/storefront/pkg/config"
	"github.com/muraqqa/storefront/pkg/logger"
)

const appName = "muraqqa-storefront"

// Client carries the Stripe secret key setup and the publishable key the
// checkout page needs to confirm card payments.
type Client struct {
	api       *stripe.Client
	mode      string
	publicKey string
}

// NewClient validates that both keys belong to the configured mode (test or
// live) and registers the secret key with the stripe SDK.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode := cfg.Environment()
	if mode != "test" && mode != "live" {
		return nil, fmt.Errorf("stripe environment must be \"test\" or \"live\", got %q", mode)
	}

	secret := strings.TrimSpace(cfg.APIKey)
	public := strings.TrimSpace(cfg.PublicKey)
	if err := checkKey("secret", secret, mode, "sk_", "rk_"); err != nil {
		return nil, err
	}
	if err := checkKey("publishable", public, mode, "pk_"); err != nil {
		return nil, err
	}

	stripe.Key = secret
	stripe.SetAppInfo(&stripe.AppInfo{Name: appName})

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_mode", mode), "stripe client initialized")
	}
	return &Client{api: stripe.NewClient(secret), mode: mode, publicKey: public}, nil
}

// checkKey requires key to start with one of prefixes followed by the mode,
// e.g. sk_test_ or rk_live_.
func checkKey(kind, key, mode string, prefixes ...string) error {
	if key == "" {
		return fmt.Errorf("stripe %s key is required", kind)
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix+mode+"_") {
			return nil
		}
	}
	return fmt.Errorf("stripe %s key does not belong to %s mode", kind, mode)
}

func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.mode
}

func (c *Client) PublicKey() string {
	if c == nil {
		return ""
	}
	return c.publicKey
}

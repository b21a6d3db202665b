package gateway

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe payment gateway
type StripeConfig struct {
	// APIKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// WebhookSecret is the secret for verifying webhook signatures
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`

	// Timeout bounds each outbound gateway call
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("stripe: api key is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe: webhook secret is required")
	}
	return nil
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.APIKey
}

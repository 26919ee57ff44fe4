package providers

import (
	"errors"
	"fmt"
	"standbot/internal/structures"
	"strings"
	"time"

	"github.com/gookit/validate"
)

// Status edits run on this cadence; cron cannot schedule below a second and
// Telegram throttles faster edits of one message.
const (
	minBroadcastInterval = 5 * time.Second
	maxBroadcastInterval = 10 * time.Second
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.String())
	}

	if _, err := time.LoadLocation(c.conf.Session.Timezone); err != nil {
		return fmt.Errorf("invalid config: session.timezone: %w", err)
	}
	if bi := c.conf.Session.BroadcastInterval; bi < minBroadcastInterval || bi > maxBroadcastInterval {
		return fmt.Errorf("invalid config: session.broadcastInterval %s must be within %s..%s", bi, minBroadcastInterval, maxBroadcastInterval)
	}
	if c.conf.Telegram.Mode == structures.ModeWebhook && !strings.HasPrefix(c.conf.Telegram.WebhookPath, "/") {
		return errors.New("invalid config: telegram.webhookPath must start with / in webhook mode")
	}
	if c.conf.Classifier.Enabled && c.conf.Classifier.APIKey == "" {
		return errors.New("invalid config: classifier.apiKey is required when the classifier is enabled")
	}
	if c.conf.StateStore.Driver == "redis" && c.conf.StateStore.Redis.Driver != "miniredis" && c.conf.StateStore.Redis.Address == "" {
		return errors.New("invalid config: stateStore.redis.address is required")
	}
	return nil
}

// Package notify publishes payout events for the notification worker.
package notify

import (
	"context"
	"time"

	"github.com/oksasatya/invest-payout-engine/internal/application"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PayoutNotifier puts every payout event on the payout queue.
type PayoutNotifier struct {
	pub     Publisher
	timeout time.Duration
}

func NewPayoutNotifier(pub Publisher) *PayoutNotifier {
	return &PayoutNotifier{pub: pub, timeout: 3 * time.Second}
}

func (n *PayoutNotifier) NotifyPayout(ctx context.Context, evt application.PayoutEvent) error {
	c, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.pub.PublishJSON(c, evt)
}

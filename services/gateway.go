package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
)

const orderSubmittedEvent = "order.submitted"

// OrderGateway is the boundary behind POST /orders. Implementations either simulate
// the backend or hand the order to a real one.
type OrderGateway interface {
	Submit(ctx context.Context, submission models.OrderSubmission) (*models.OrderConfirmation, error)
}

// SimulatedGateway confirms every order after a fixed delay.
type SimulatedGateway struct {
	clock        Clock
	delay        time.Duration
	deliveryLead time.Duration
}

func NewSimulatedGateway(clock Clock, delay, deliveryLead time.Duration) *SimulatedGateway {
	return &SimulatedGateway{clock: clock, delay: delay, deliveryLead: deliveryLead}
}

func (g *SimulatedGateway) Submit(ctx context.Context, submission models.OrderSubmission) (*models.OrderConfirmation, error) {
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("order submission canceled: %w", ctx.Err())
		case <-g.clock.After(g.delay):
		}
	}
	return confirm(submission, g.clock.Now(), g.deliveryLead), nil
}

// QueueGateway publishes the order to an SQS queue for fulfilment and confirms it once queued.
type QueueGateway struct {
	sender       aws_pkg.QueueSender
	clock        Clock
	deliveryLead time.Duration
}

func NewQueueGateway(sender aws_pkg.QueueSender, clock Clock, deliveryLead time.Duration) *QueueGateway {
	return &QueueGateway{sender: sender, clock: clock, deliveryLead: deliveryLead}
}

func (g *QueueGateway) Submit(ctx context.Context, submission models.OrderSubmission) (*models.OrderConfirmation, error) {
	submission.EventType = orderSubmittedEvent
	body, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	if _, err := g.sender.SendMessage(ctx, string(body), map[string]string{
		"event_type": orderSubmittedEvent,
		"order_id":   submission.OrderID,
	}); err != nil {
		return nil, fmt.Errorf("queue order %s: %w", submission.OrderID, err)
	}
	return confirm(submission, g.clock.Now(), g.deliveryLead), nil
}

func confirm(submission models.OrderSubmission, now time.Time, lead time.Duration) *models.OrderConfirmation {
	return &models.OrderConfirmation{
		OrderID:           submission.OrderID,
		SessionID:         submission.Cart.SessionID,
		IdentityID:        submission.IdentityID,
		Lines:             submission.Cart.Lines,
		TotalItems:        submission.Cart.TotalItems,
		TotalAmount:       submission.Cart.TotalAmount,
		Status:            models.OrderStatusConfirmed,
		EstimatedDelivery: now.Add(lead),
		PlacedAt:          now,
	}
}

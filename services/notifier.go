package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"go.uber.org/zap"
)

const defaultFeedSize = 20

// MultiListener fans one event out to several listeners in order.
type MultiListener []CartListener

func (m MultiListener) OnCartChanged(event models.CartEvent) {
	for _, l := range m {
		if l != nil {
			l.OnCartChanged(event)
		}
	}
}

// ToastFeed turns cart events into the short messages the dashboard shows as toasts.
// Each session keeps only its latest messages.
type ToastFeed struct {
	mu    sync.Mutex
	size  int
	feeds map[string][]models.Notification
}

func NewToastFeed(size int) *ToastFeed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &ToastFeed{size: size, feeds: make(map[string][]models.Notification)}
}

func (f *ToastFeed) OnCartChanged(event models.CartEvent) {
	level, message := toastFor(event)
	n := models.Notification{
		ID:        uuid.NewString(),
		SessionID: event.SessionID,
		Level:     level,
		Message:   message,
		CreatedAt: event.Timestamp,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	feed := append(f.feeds[event.SessionID], n)
	if len(feed) > f.size {
		feed = feed[len(feed)-f.size:]
	}
	f.feeds[event.SessionID] = feed
}

// Recent returns the session's notifications, newest first.
func (f *ToastFeed) Recent(sessionID string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	feed := f.feeds[sessionID]
	out := make([]models.Notification, len(feed))
	for i, n := range feed {
		out[len(feed)-1-i] = n
	}
	return out
}

// Discard drops the session's feed.
func (f *ToastFeed) Discard(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.feeds, sessionID)
}

func toastFor(event models.CartEvent) (models.NotificationLevel, string) {
	name := event.DisplayName
	if name == "" {
		name = "Item"
	}
	switch event.EventType {
	case models.CartItemAdded:
		return models.NotificationSuccess, name + " added to cart"
	case models.CartQuantityUpdated:
		return models.NotificationInfo, fmt.Sprintf("%s quantity updated to %d", name, event.Quantity)
	case models.CartItemRemoved:
		return models.NotificationInfo, name + " removed from cart"
	case models.CartCleared:
		return models.NotificationInfo, "Cart cleared"
	}
	return models.NotificationInfo, "Cart updated"
}

// SNSCartPublisher forwards cart events to an SNS topic off the request path.
type SNSCartPublisher struct {
	publisher aws_pkg.SNSPublisher
	topicArn  string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewSNSCartPublisher(publisher aws_pkg.SNSPublisher, topicArn string, logger *zap.Logger) *SNSCartPublisher {
	return &SNSCartPublisher{publisher: publisher, topicArn: topicArn, timeout: 5 * time.Second, logger: logger}
}

func (p *SNSCartPublisher) OnCartChanged(event models.CartEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal cart event", zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.publisher.Publish(ctx, p.topicArn, body); err != nil {
			p.logger.Warn("Failed to publish cart event",
				zap.String("event_type", string(event.EventType)),
				zap.String("session_id", event.SessionID),
				zap.Error(err))
		}
	}()
}

// MetricsCartListener counts cart mutations in CloudWatch.
type MetricsCartListener struct {
	metrics aws_pkg.MetricsRecorder
	service string
}

func NewMetricsCartListener(metrics aws_pkg.MetricsRecorder, service string) *MetricsCartListener {
	return &MetricsCartListener{metrics: metrics, service: service}
}

func (m *MetricsCartListener) OnCartChanged(event models.CartEvent) {
	if m.metrics == nil || !m.metrics.IsEnabled() {
		return
	}
	var name string
	switch event.EventType {
	case models.CartItemAdded:
		name = aws_pkg.MetricCartItemsAdded
	case models.CartItemRemoved:
		name = aws_pkg.MetricCartItemsRemoved
	case models.CartQuantityUpdated:
		name = aws_pkg.MetricCartUpdates
	case models.CartCleared:
		name = aws_pkg.MetricCartCleared
	default:
		return
	}
	value, _ := event.TotalAmount.Float64()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dims := map[string]string{"Service": m.service}
		_ = m.metrics.RecordCount(ctx, name, dims)
		_ = m.metrics.RecordValue(ctx, aws_pkg.MetricCartValue, value, dims)
	}()
}

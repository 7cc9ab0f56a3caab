package notification

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"

	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends low-stock alerts to every push subscription.
type WorkerPool struct {
	size          int
	jobs          chan string
	items         *repo.Repository[model.Item]
	subscriptions *repo.Repository[model.PushSubscription]
	webpush       *webpush.Options
	sender        NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:          size,
		jobs:          make(chan string, size*16),
		items:         repo.New(s, repo.Items),
		subscriptions: repo.New(s, repo.PushSubscriptions),
		webpush:       webpushOptions,
		sender:        &WebPushSender{},
	}
}

// SetSender replaces the push transport. It must be called before Start.
func (wp *WorkerPool) SetSender(sender NotificationSender) {
	wp.sender = sender
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case itemID := <-wp.jobs:
			log.Debug().Int("worker", id).Str("item", itemID).Msg("processing low-stock alert")
			wp.notifyLowStock(ctx, itemID)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a low-stock alert for itemID. A full queue drops the
// alert so a checkout never waits on push delivery.
func (wp *WorkerPool) Dispatch(itemID string) {
	select {
	case wp.jobs <- itemID:
	default:
		log.Warn().Str("item", itemID).Msg("notification queue full, dropping low-stock alert")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) notifyLowStock(ctx context.Context, itemID string) {
	subscriptions, err := wp.subscriptions.List(ctx, store.SelectOptions{})
	if err != nil {
		log.Error().Err(err).Str("item", itemID).Msg("failed to load push subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := lowStockMessage(ctx, wp.items, itemID)
	log.Info().Str("item", itemID).Int("subscriptions", len(subscriptions)).Msg("sending low-stock alerts")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func lowStockMessage(ctx context.Context, items *repo.Repository[model.Item], itemID string) string {
	item, err := items.Get(ctx, itemID)
	if err != nil {
		log.Warn().Err(err).Str("item", itemID).Msg("failed to load item for alert")
		return fmt.Sprintf("Stok menipis: %s", itemID)
	}
	return fmt.Sprintf("Stok menipis: %s (%s tersisa)", item.Name, strconv.FormatFloat(item.Stock, 'f', -1, 64))
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.subscriptions.DeleteWhere(ctx, store.Where{"endpoint": sub.Endpoint}); err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}

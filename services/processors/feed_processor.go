package processors

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	metrics "bankfeed/metrics"
	models "bankfeed/models"
	push "bankfeed/push"
	decoders "bankfeed/services/decoders"
	feeds "bankfeed/services/feeds"

	// External Packages
	"go.uber.org/zap"
)

type TxRepository interface {
	UpsertTransaction(ctx context.Context, tx models.Transaction) error
}

type DeadLetterQueue interface {
	Send(ctx context.Context, letters []models.DeadLetter) error
}

// Subscriber is the part of push.Manager the processor needs.
type Subscriber interface {
	OnMessage(topic string, handler push.Handler) (unsubscribe func())
}

// Stores are the live views fed by push records. Any of them may be nil.
type Stores struct {
	Transactions  *feeds.TransactionFeed
	Notifications *feeds.NotificationFeed
	Accounts      *feeds.AccountBook
}

// FeedProcessor decodes push records and applies them to the stores. Undecodable records are
// dropped; they only reach the dead-letter queue when one is configured.
type FeedProcessor struct {
	Logger  *zap.Logger
	Topics  decoders.Topics
	Stores  Stores
	TxRepo  TxRepository
	DLQ     DeadLetterQueue
	Metrics metrics.Collector
}

func NewFeedProcessor(logger *zap.Logger, topics decoders.Topics, stores Stores) *FeedProcessor {
	return &FeedProcessor{
		Logger:  logger.Named("processor"),
		Topics:  topics,
		Stores:  stores,
		Metrics: metrics.NoOpCollector{},
	}
}

// Attach subscribes the processor to every topic it has a store or sink for. Errors are logged,
// never returned to the transport.
func (p *FeedProcessor) Attach(ctx context.Context, sub Subscriber) (detach func()) {
	var topics []string
	if p.Stores.Notifications != nil {
		topics = append(topics, p.Topics.Notifications)
	}
	if p.Stores.Transactions != nil || p.TxRepo != nil {
		topics = append(topics, p.Topics.Transactions)
	}
	if p.Stores.Accounts != nil {
		topics = append(topics, p.Topics.PaymentsSuccess, p.Topics.PaymentsReceived)
	}

	unsubscribes := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubscribes = append(unsubscribes, sub.OnMessage(topic, p.handle(ctx)))
	}
	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}

func (p *FeedProcessor) handle(ctx context.Context) push.Handler {
	return func(record models.Record) {
		if err := p.ProcessRecord(ctx, record); err != nil {
			p.Logger.Error("failed to process record", zap.String("topic", record.Topic), zap.Error(err))
		}
	}
}

// ProcessRecords processes a batch, continuing past failures.
func (p *FeedProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var errs []error
	for _, record := range records {
		if err := p.ProcessRecord(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *FeedProcessor) ProcessRecord(ctx context.Context, record models.Record) error {
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now()
	}
	decoded, err := decoders.DecodeAt(p.Topics, record.Topic, record.Value, record.ReceivedAt)
	if err != nil {
		p.Metrics.RecordDecodeError(record.Topic)
		p.Logger.Warn("dropping undecodable record", zap.String("topic", record.Topic), zap.Error(err))
		p.deadLetter(ctx, record, err)
		return nil
	}

	switch v := decoded.(type) {
	case models.Notification:
		if p.Stores.Notifications != nil {
			p.Stores.Notifications.Prepend(v)
		}
	case models.Transaction:
		if p.Stores.Transactions != nil {
			p.Stores.Transactions.Prepend(v)
		}
		if p.TxRepo != nil {
			if err := p.TxRepo.UpsertTransaction(ctx, v); err != nil {
				return fmt.Errorf("failed to archive transaction %s: %w", v.ID, err)
			}
		}
	case models.PaymentEvent:
		if p.Stores.Accounts != nil {
			received := record.Topic == p.Topics.PaymentsReceived
			if !p.Stores.Accounts.ApplyPaymentEvent(v, received) {
				p.Logger.Debug("payment event for unknown account", zap.String("account", v.AccountNumber))
			}
		}
	}
	return nil
}

func (p *FeedProcessor) deadLetter(ctx context.Context, record models.Record, reason error) {
	if p.DLQ == nil {
		return
	}
	letter := models.DeadLetter{
		Topic:      record.Topic,
		Payload:    string(record.Value),
		Reason:     reason.Error(),
		ReceivedAt: record.ReceivedAt,
	}
	if err := p.DLQ.Send(ctx, []models.DeadLetter{letter}); err != nil {
		p.Logger.Error("failed to send dead letter", zap.String("topic", record.Topic), zap.Error(err))
	}
}

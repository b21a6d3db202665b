// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the payment pipeline.
// It tracks intent creation, webhook outcomes, refunds, disputes, and
// settlement health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	intentCreatedTotal *Counter
	paymentAmountTotal *Counter
	paymentTotal       *Counter
	refundTotal        *Counter
	disputeTotal       *Counter
	settlementTotal    *Counter

	// Gauge metrics (point-in-time values)
	availableTokens       *Gauge
	unsettledTransactions *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	portfolioProvider PortfolioMetricsProvider
}

// PortfolioMetricsProvider provides inventory and settlement data for
// periodic metrics collection. This interface allows the telemetry layer
// to query persisted state without depending on the domain directly.
type PortfolioMetricsProvider interface {
	// GetAvailableTokensByProperty returns remaining available tokens per property
	GetAvailableTokensByProperty(ctx context.Context) (map[string]int64, error)

	// GetUnsettledTransactionCount returns the number of succeeded transactions
	// that have not been settled yet
	GetUnsettledTransactionCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	PortfolioProvider PortfolioMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		portfolioProvider: cfg.PortfolioProvider,
	}

	var err error

	// Intent metrics
	bm.intentCreatedTotal, err = NewCounter(
		cfg.Meter,
		"propshare_payment_intent_created_total",
		"Total number of payment intents created",
		"{intents}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentAmountTotal, err = NewCounter(
		cfg.Meter,
		"propshare_payment_amount_total",
		"Total charged amount in minor currency units",
		"{minor_units}",
	)
	if err != nil {
		return nil, err
	}

	// Webhook outcome metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"propshare_payment_total",
		"Total number of finalized payments",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.refundTotal, err = NewCounter(
		cfg.Meter,
		"propshare_refund_total",
		"Total number of refund requests processed",
		"{refunds}",
	)
	if err != nil {
		return nil, err
	}

	bm.disputeTotal, err = NewCounter(
		cfg.Meter,
		"propshare_dispute_total",
		"Total number of disputes received",
		"{disputes}",
	)
	if err != nil {
		return nil, err
	}

	// Settlement metrics
	bm.settlementTotal, err = NewCounter(
		cfg.Meter,
		"propshare_settlement_total",
		"Total number of settlement attempts",
		"{settlements}",
	)
	if err != nil {
		return nil, err
	}

	// Portfolio gauge metrics
	bm.availableTokens, err = NewGauge(
		cfg.Meter,
		"propshare_property_available_tokens",
		"Remaining available tokens per property",
		"{tokens}",
	)
	if err != nil {
		return nil, err
	}

	bm.unsettledTransactions, err = NewGauge(
		cfg.Meter,
		"propshare_unsettled_transactions",
		"Succeeded transactions awaiting settlement",
		"{transactions}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Intent Metrics
// =============================================================================

// RecordIntentCreated records a payment intent creation.
// This should be called from the application layer when an intent is created.
func (bm *BusinessMetrics) RecordIntentCreated(ctx context.Context, currency string) {
	bm.intentCreatedTotal.Inc(ctx,
		AttrCurrency.String(currency),
	)
}

// RecordPaymentAmount records the gross charge amount of an intent.
// Amount is in the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordPaymentAmount(ctx context.Context, currency string, amount int64) {
	bm.paymentAmountTotal.Add(ctx, amount,
		AttrCurrency.String(currency),
	)
}

// =============================================================================
// Payment Outcome Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusCanceled PaymentStatus = "canceled"
)

// RecordPayment records a finalized payment.
// This should be called when a payment webhook is processed.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, currency string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrCurrency.String(currency),
		AttrPaymentStatus.String(string(status)),
	)
}

// RecordRefund records a refund request outcome.
func (bm *BusinessMetrics) RecordRefund(ctx context.Context, currency, reason string) {
	bm.refundTotal.Inc(ctx,
		AttrCurrency.String(currency),
		AttrRefundReason.String(reason),
	)
}

// RecordDispute records a received dispute.
func (bm *BusinessMetrics) RecordDispute(ctx context.Context, currency, reason string) {
	bm.disputeTotal.Inc(ctx,
		AttrCurrency.String(currency),
		AttrDisputeReason.String(reason),
	)
}

// =============================================================================
// Settlement Metrics
// =============================================================================

// SettlementOutcome represents the result of a settlement attempt.
type SettlementOutcome string

const (
	SettlementOutcomeSettled  SettlementOutcome = "settled"
	SettlementOutcomeRejected SettlementOutcome = "rejected"
)

// RecordSettlement records a settlement attempt outcome.
func (bm *BusinessMetrics) RecordSettlement(ctx context.Context, propertyID string, outcome SettlementOutcome) {
	bm.settlementTotal.Inc(ctx,
		AttrPropertyID.String(propertyID),
		AttrSettlementOutcome.String(string(outcome)),
	)
}

// RecordAvailableTokens records the remaining available tokens for a property.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordAvailableTokens(ctx context.Context, propertyID string, tokens int64) {
	bm.availableTokens.Record(ctx, tokens,
		AttrPropertyID.String(propertyID),
	)
}

// RecordUnsettledTransactions records the number of succeeded transactions
// awaiting settlement. This is a gauge metric updated periodically.
func (bm *BusinessMetrics) RecordUnsettledTransactions(ctx context.Context, count int64) {
	bm.unsettledTransactions.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects portfolio metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectPortfolioMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectPortfolioMetrics(ctx)
		}
	}
}

// collectPortfolioMetrics collects the inventory and settlement gauges.
func (bm *BusinessMetrics) collectPortfolioMetrics(ctx context.Context) {
	if bm.portfolioProvider == nil {
		bm.logger.Debug("No portfolio provider configured, skipping gauge collection")
		return
	}

	tokensByProperty, err := bm.portfolioProvider.GetAvailableTokensByProperty(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get available tokens for metrics collection", zap.Error(err))
	} else {
		for propertyID, tokens := range tokensByProperty {
			bm.RecordAvailableTokens(ctx, propertyID, tokens)
		}
	}

	unsettled, err := bm.portfolioProvider.GetUnsettledTransactionCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get unsettled transaction count", zap.Error(err))
	} else {
		bm.RecordUnsettledTransactions(ctx, unsettled)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

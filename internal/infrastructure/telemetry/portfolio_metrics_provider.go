// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormPortfolioMetricsProvider implements PortfolioMetricsProvider using GORM.
// It queries the properties and transactions tables directly for aggregates.
type GormPortfolioMetricsProvider struct {
	db *gorm.DB
}

// NewGormPortfolioMetricsProvider creates a new GormPortfolioMetricsProvider.
func NewGormPortfolioMetricsProvider(db *gorm.DB) *GormPortfolioMetricsProvider {
	return &GormPortfolioMetricsProvider{db: db}
}

// GetAvailableTokensByProperty returns remaining available tokens per property.
func (p *GormPortfolioMetricsProvider) GetAvailableTokensByProperty(ctx context.Context) (map[string]int64, error) {
	type result struct {
		ID              string `gorm:"column:id"`
		AvailableTokens int64  `gorm:"column:available_tokens"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("properties").
		Select("id, available_tokens").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.ID] = r.AvailableTokens
	}

	return m, nil
}

// GetUnsettledTransactionCount returns the number of succeeded purchase
// transactions that have not been settled yet.
func (p *GormPortfolioMetricsProvider) GetUnsettledTransactionCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("transactions").
		Where("kind = ? AND status = ? AND settled = ?", "purchase", "succeeded", false).
		Count(&count).Error

	return count, err
}

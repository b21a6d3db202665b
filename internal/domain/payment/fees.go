package payment

import (
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeSchedule holds the platform's fee parameters. Rates are decimals so
// fee math never touches floating point; amounts stay in integer minor
// units end to end.
type FeeSchedule struct {
	PlatformRate   decimal.Decimal
	ProcessingRate decimal.Decimal
	FixedFee       int64
}

// NewFeeSchedule builds a schedule from string rates as they appear in config
func NewFeeSchedule(platformRate, processingRate string, fixedFee int64) (FeeSchedule, error) {
	pr, err := decimal.NewFromString(platformRate)
	if err != nil {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Platform rate is not a valid decimal")
	}
	cr, err := decimal.NewFromString(processingRate)
	if err != nil {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Processing rate is not a valid decimal")
	}
	if pr.IsNegative() || cr.IsNegative() || fixedFee < 0 {
		return FeeSchedule{}, shared.NewDomainError("INVALID_FEE_RATE", "Fee parameters cannot be negative")
	}
	return FeeSchedule{PlatformRate: pr, ProcessingRate: cr, FixedFee: fixedFee}, nil
}

// FeeBreakdown is the computed fee split for one charge, in minor units
type FeeBreakdown struct {
	PlatformFee   int64 `json:"platform_fee"`
	ProcessingFee int64 `json:"processing_fee"`
	TotalCharge   int64 `json:"total_charge"`
}

// Calculate computes the breakdown for an amount in minor units.
// platformFee = round(amount * platformRate), processingFee =
// round(amount * processingRate) + fixedFee, totalCharge = amount +
// platformFee + processingFee. Rounding is half away from zero.
func (s FeeSchedule) Calculate(amount int64) (FeeBreakdown, error) {
	if amount <= 0 {
		return FeeBreakdown{}, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	base := decimal.NewFromInt(amount)
	platformFee := base.Mul(s.PlatformRate).Round(0).IntPart()
	processingFee := base.Mul(s.ProcessingRate).Round(0).IntPart() + s.FixedFee
	return FeeBreakdown{
		PlatformFee:   platformFee,
		ProcessingFee: processingFee,
		TotalCharge:   amount + platformFee + processingFee,
	}, nil
}

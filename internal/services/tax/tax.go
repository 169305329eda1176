package tax

import "TradePilot/internal/domain/models"

// Statutory rates applied to turnover.
const (
	STTRate            = 0.001
	StampDutyRate      = 0.00015
	ExchangeChargeRate = 0.0000345
	SEBIFeeRate        = 0.0000001
	GSTRate            = 0.18
)

// Calculate returns the regulatory costs of trading qty shares at price.
// Callers must pass positive price and qty. No intermediate rounding is applied.
func Calculate(action models.Action, price float64, qty int) models.TaxBreakdown {
	turnover := price * float64(qty)

	stt := turnover * STTRate
	stamp := 0.0
	if action == models.ActionBuy {
		stamp = turnover * StampDutyRate
	}
	exchange := turnover * ExchangeChargeRate
	sebi := turnover * SEBIFeeRate
	gst := (exchange + sebi) * GSTRate
	other := exchange + sebi

	return models.TaxBreakdown{
		STT:       stt,
		StampDuty: stamp,
		GST:       gst,
		Other:     other,
		Total:     stt + stamp + gst + other,
	}
}

// Engine adapts Calculate to an injectable dependency.
type Engine struct{}

// NewEngine returns the NSE cost model.
func NewEngine() *Engine { return &Engine{} }

// Calculate implements the cost model.
func (Engine) Calculate(action models.Action, price float64, qty int) models.TaxBreakdown {
	return Calculate(action, price, qty)
}

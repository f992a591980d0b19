package pricing

import (
	"errors"
	"math"

	"go.uber.org/zap"
)

var ErrInvalidCredits = errors.New("invalid credit quantity")

const shareTolerance = 1e-9

// Calculator converts credit quantities to gross cents and splits gross
// amounts between the payee and the platform. All arithmetic is done in
// integer cents; only one side of the split is ever rounded.
type Calculator struct {
	centsPerCredit int64
	payeeShare     float64
	platformShare  float64
}

func New(centsPerCredit int64, payeeShare, platformShare float64) *Calculator {
	if math.Abs(payeeShare+platformShare-1.0) > shareTolerance {
		zap.L().Error("revenue shares do not sum to 1, platform share will absorb the remainder",
			zap.Float64("payeeShare", payeeShare),
			zap.Float64("platformShare", platformShare),
			zap.Float64("sum", payeeShare+platformShare),
		)
	}
	return &Calculator{
		centsPerCredit: centsPerCredit,
		payeeShare:     payeeShare,
		platformShare:  platformShare,
	}
}

// GrossCents converts a credit quantity to its gross monetary value,
// rounded to the nearest cent.
func (c *Calculator) GrossCents(credits float64) (int64, error) {
	if math.IsNaN(credits) || math.IsInf(credits, 0) || credits < 0 {
		return 0, ErrInvalidCredits
	}
	return int64(math.Round(credits * float64(c.centsPerCredit))), nil
}

// Split divides gross cents between payee and platform. The payee gets the
// rounded share; the platform gets the exact remainder, so the two parts
// always sum to gross.
func (c *Calculator) Split(grossCents int64) (payeeCents, platformCents int64) {
	payeeCents = int64(math.Round(float64(grossCents) * c.payeeShare))
	platformCents = grossCents - payeeCents
	return payeeCents, platformCents
}

// CreditSplit prices a credit quantity and splits it in one step.
func (c *Calculator) CreditSplit(credits float64) (grossCents, payeeCents, platformCents int64, err error) {
	grossCents, err = c.GrossCents(credits)
	if err != nil {
		return 0, 0, 0, err
	}
	payeeCents, platformCents = c.Split(grossCents)
	return grossCents, payeeCents, platformCents, nil
}

// SessionCredits is the credit cost of a session of the given length.
func SessionCredits(minutes, perMinuteRate int64) int64 {
	return minutes * perMinuteRate
}

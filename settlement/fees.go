package settlement

import (
	"fmt"
	"math/bits"

	"github.com/wfunc/gamingpool/models"
)

// FeeRateDenominator makes fee rates whole percentages.
const FeeRateDenominator = 100

// ComputeFees splits amount into platform fee, transaction fee and the
// remaining net amount. Fee amounts round down, so the three parts always
// sum to amount exactly.
func ComputeFees(amount, platformRate, transactionRate uint64) (models.FeeDetails, error) {
	platform, err := rateOf(amount, platformRate)
	if err != nil {
		return models.FeeDetails{}, fmt.Errorf("platform fee: %w", err)
	}
	transaction, err := rateOf(amount, transactionRate)
	if err != nil {
		return models.FeeDetails{}, fmt.Errorf("transaction fee: %w", err)
	}
	total, carry := bits.Add64(platform, transaction, 0)
	if carry != 0 || total > amount {
		return models.FeeDetails{}, fmt.Errorf("%w: platform %d + transaction %d > amount %d",
			models.ErrInvalidFeeConfig, platform, transaction, amount)
	}
	return models.FeeDetails{
		PlatformFeeAmount:    platform,
		TransactionFeeAmount: transaction,
		NetAmount:            amount - total,
	}, nil
}

func rateOf(amount, rate uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, rate)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", models.ErrOverflow, amount, rate)
	}
	return lo / FeeRateDenominator, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", models.ErrOverflow, a, b)
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

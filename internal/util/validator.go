package util

import (
	"fmt"
	"strconv"
)

// maxAmountPaise caps single documents at ₹10 crore.
const maxAmountPaise int64 = 100_000_000_00

// ParseAmount converts a rupee string ("1234.56") to paise.
func ParseAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if f < 0 {
		return int64(f*100 - 0.5), nil
	}
	return int64(f*100 + 0.5), nil
}

// FormatAmount renders paise as a rupee string with two decimals.
func FormatAmount(paise int64) string {
	return strconv.FormatFloat(float64(paise)/100.0, 'f', 2, 64)
}

// ValidatePositiveAmount checks a payment-style amount: > 0 and below cap.
func ValidatePositiveAmount(paise int64) error {
	if paise <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if paise > maxAmountPaise {
		return fmt.Errorf("amount too large")
	}
	return nil
}

// ValidateSignedAmount checks a ledger transaction amount: non-zero,
// magnitude below cap. Sign carries meaning (positive = we owe them).
func ValidateSignedAmount(paise int64) error {
	if paise == 0 {
		return fmt.Errorf("amount must be non-zero")
	}
	if paise > maxAmountPaise || paise < -maxAmountPaise {
		return fmt.Errorf("amount too large")
	}
	return nil
}

// ValidatePaymentMode restricts payment modes to the known set.
func ValidatePaymentMode(mode string) error {
	switch mode {
	case "cash", "upi", "bank_transfer", "cheque", "card":
		return nil
	}
	return fmt.Errorf("invalid payment mode %q", mode)
}

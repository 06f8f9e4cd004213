package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimal places of the ledger's native unit.
const EtherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(EtherDecimals), nil)

// ParseDecimalToWei converts a decimal string (major units, e.g. "1.5") to
// wei (18-decimal minor units) using exact integer arithmetic. Float
// conversion is never used here: the wei value submitted on-chain must be
// bit-identical to the one that was attested.
func ParseDecimalToWei(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("amount must be an unsigned decimal: %s", amount)
	}

	intPart := s
	fracPart := ""
	if idx := strings.Index(s, "."); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
		if strings.Contains(fracPart, ".") {
			return nil, fmt.Errorf("invalid decimal format: %s", amount)
		}
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid decimal format: %s", amount)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > EtherDecimals {
		return nil, fmt.Errorf("too many decimal places (max %d): %s", EtherDecimals, amount)
	}

	// Pad the fractional part to exactly 18 digits and concatenate.
	padded := fracPart + strings.Repeat("0", EtherDecimals-len(fracPart))

	wei, ok := new(big.Int).SetString(intPart+padded, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal format: %s", amount)
	}
	return wei, nil
}

// ParsePositiveDecimalToWei is ParseDecimalToWei restricted to values > 0.
func ParsePositiveDecimalToWei(amount string) (*big.Int, error) {
	wei, err := ParseDecimalToWei(amount)
	if err != nil {
		return nil, err
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive: %s", amount)
	}
	return wei, nil
}

// FormatWeiToDecimal renders a wei value as a decimal string in major units
// with trailing zeros trimmed, so ParseDecimalToWei(FormatWeiToDecimal(w)) == w.
func FormatWeiToDecimal(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	quo, rem := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	return quo.String() + "." + frac
}

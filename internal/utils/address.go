package utils

import (
	"regexp"
	"strings"
)

// walletAddressPattern matches a 20-byte EVM address: 0x + 40 hex chars.
var walletAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsWalletAddress checks whether the string is a 0x-prefixed 20-byte hex address.
func IsWalletAddress(address string) bool {
	return walletAddressPattern.MatchString(address)
}

// NormalizeWalletAddress lowercases an address for case-insensitive comparison.
// The original casing should be kept for display.
func NormalizeWalletAddress(address string) string {
	return strings.ToLower(address)
}

package utils

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultPrecision is the number of fractional digits FormatAmount keeps
// before trimming trailing zeros.
const DefaultPrecision = 4

// FormatAmount converts a base-10 raw integer amount and a decimal count into
// a human-readable fixed-point string using arbitrary-precision arithmetic,
// so 18-decimal assets are never squeezed through a float64.
// Example: FormatAmount("1234500000000000000", 18, 4) => "1.2345".
// A zero amount renders "0"; any other amount keeps at least one fractional
// digit ("1.0", never "1").
// Malformed input falls through to a lossy float64 division; if even that
// yields nothing numeric the literal "0" is returned. The degraded path is
// deliberate: a garbled balance should still render a row.
func FormatAmount(raw string, decimals int, precision int) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0"
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}

	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return formatAmountFloat(raw, decimals)
	}
	if amount.Sign() == 0 {
		return "0"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(amount, scale, frac)

	fracStr := frac.String()
	if pad := decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	if len(fracStr) > precision {
		fracStr = fracStr[:precision]
	}
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}

	return whole.String() + "." + fracStr
}

// formatAmountFloat is the degraded fallback for inputs big.Int cannot parse.
func formatAmountFloat(raw string, decimals int) string {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "0"
	}
	v := f / math.Pow10(decimals)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizeRawAmount turns a provider balance string into a canonical base-10
// non-negative integer string. Hex-prefixed values ("0x02a3...") are parsed
// with arbitrary precision; decimal values are re-rendered to strip leading
// zeros; anything else normalizes to "0".
func NormalizeRawAmount(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0"
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		n, ok := new(big.Int).SetString(raw[2:], 16)
		if !ok || n.Sign() < 0 {
			return "0"
		}
		return n.String()
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || n.Sign() < 0 {
		return "0"
	}
	return n.String()
}

// CalculateValueUSD multiplies a formatted amount by a unit price and rounds
// to 6 fractional digits. A non-numeric amount or non-positive price yields 0.
func CalculateValueUSD(formattedAmount string, priceUSD float64) float64 {
	if priceUSD <= 0 {
		return 0
	}
	f, err := strconv.ParseFloat(formattedAmount, 64)
	if err != nil || f < 0 {
		return 0
	}
	return math.Round(f*priceUSD*1e6) / 1e6
}

var displayPrinter = message.NewPrinter(language.English)

// FormatDisplay renders a numeric string with locale grouping for
// presentation only; it is never fed back into arithmetic. Non-numeric
// input is returned unchanged.
func FormatDisplay(value string, maxFractionDigits, minFractionDigits int) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	return displayPrinter.Sprint(number.Decimal(f,
		number.MaxFractionDigits(maxFractionDigits),
		number.MinFractionDigits(minFractionDigits)))
}

package meter

import (
	"fmt"
	"strings"
)

// Brand identifies the metering hardware family a meter belongs to. Each
// brand has its own identifier format and its own set of catalog datasets.
type Brand string

const (
	BrandElster Brand = "Elster"
	BrandUnion  Brand = "Union"
	BrandHexing Brand = "Hexing"
)

// EmptyKey is the sentinel returned when a meter resolves to no catalog row.
const EmptyKey = "EMPTY"

// ParseBrand maps a menu selection to a Brand.
func ParseBrand(s string) (Brand, error) {
	switch strings.TrimSpace(s) {
	case string(BrandElster):
		return BrandElster, nil
	case string(BrandUnion):
		return BrandUnion, nil
	case string(BrandHexing):
		return BrandHexing, nil
	default:
		return "", fmt.Errorf("unknown brand: %q", s)
	}
}

// Brands lists the brands in menu order.
func Brands() []Brand {
	return []Brand{BrandElster, BrandUnion, BrandHexing}
}

// Normalize rewrites a raw user-entered meter identifier into the brand's
// canonical form. It is a pure transform; the catalog existence check is a
// separate step (Datasets.ResolveKey). Already-canonical input passes
// through unchanged, so Normalize is idempotent.
func Normalize(raw string, brand Brand) string {
	raw = strings.TrimSpace(raw)
	switch brand {
	case BrandElster:
		return normalizeElster(raw)
	case BrandUnion:
		return normalizeUnion(raw)
	default:
		// Hexing meters are queried exactly as entered.
		return raw
	}
}

// normalizeElster rewrites a bare client number into the dashed
// YYYY-GGG-NNNNNN key. Inputs of 13 to 15 characters that do not already
// carry dashes at positions 4 and 8 are split into year (4), group (3,
// zero-padded) and number (6, zero-padded).
func normalizeElster(raw string) string {
	if len(raw) < 13 || len(raw) > 15 {
		return raw
	}
	if raw[4] == '-' && raw[8] == '-' {
		return raw
	}
	year := raw[:4]
	group := raw[4:7]
	number := raw[7:]
	return fmt.Sprintf("%s-%s-%s", year, zeroPad(group, 3), zeroPad(number, 6))
}

// normalizeUnion strips the transport-prefix digit 7 and left-pads the rest
// with zeros to the fixed 12-digit meter number. The rewrite applies to
// short inputs (length 3 to 5) and to any input starting with 7.
func normalizeUnion(raw string) string {
	if !(len(raw) > 2 && len(raw) < 6) && !strings.HasPrefix(raw, "7") {
		return raw
	}
	m := raw
	if strings.HasPrefix(m, "7") {
		m = m[1:]
	}
	return zeroPad(m, 12)
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

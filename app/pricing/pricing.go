package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Cost model constants. Fees are in the feed currency; weight is grams.
const (
	perItemFee      = 0.08
	finalValuePct   = 9.9
	dropshipFee     = 0.7
	marginPct       = 10.0
	fixedFee        = 0.3
	parcelFee       = 2.22
	heavyParcelFee  = 2.57
	heavyGramsLimit = 1600
)

// Calculator derives the inclusive sale price from a row's cost fields:
// rrp, discount (percent) and weight (grams). Discount and weight default
// to zero when absent; a missing or non-positive rrp yields no price.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) InclusivePrice(fields map[string]string) (float64, bool) {
	rrp, ok := parseAmount(fields["rrp"])
	if !ok || rrp <= 0 {
		return 0, false
	}

	discount, _ := parseAmount(fields["discount"])
	weight, _ := parseAmount(fields["weight"])

	costPrice := rrp - (rrp * discount / 100)

	postageFee := parcelFee
	if weight > heavyGramsLimit {
		postageFee = heavyParcelFee
	}

	baseCost := costPrice + perItemFee + postageFee + dropshipFee
	marketplaceFee := (baseCost * finalValuePct / 100) + perItemFee
	finalPrice := ((baseCost + marketplaceFee) * (1 + marginPct/100)) + fixedFee

	return math.Round(finalPrice*100) / 100, true
}

// Format renders a computed price as a field value.
func Format(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

func parseAmount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

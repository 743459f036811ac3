package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Bucket holds the markup rules for one product category.
type Bucket struct {
	Base      decimal.Decimal
	Min       decimal.Decimal
	Max       decimal.Decimal
	MinProfit decimal.Decimal
}

// DefaultCategory is the bucket applied when no category keyword matches.
const DefaultCategory = "default"

var buckets = map[string]Bucket{
	"electronics": {
		Base:      decimal.NewFromFloat(1.6),
		Min:       decimal.NewFromFloat(1.4),
		Max:       decimal.NewFromFloat(1.8),
		MinProfit: decimal.NewFromFloat(2.0),
	},
	"fashion": {
		Base:      decimal.NewFromFloat(2.2),
		Min:       decimal.NewFromFloat(1.8),
		Max:       decimal.NewFromFloat(2.6),
		MinProfit: decimal.NewFromFloat(1.5),
	},
	"home-goods": {
		Base:      decimal.NewFromFloat(1.9),
		Min:       decimal.NewFromFloat(1.6),
		Max:       decimal.NewFromFloat(2.2),
		MinProfit: decimal.NewFromFloat(1.0),
	},
	"accessories": {
		Base:      decimal.NewFromFloat(2.5),
		Min:       decimal.NewFromFloat(2.0),
		Max:       decimal.NewFromFloat(3.0),
		MinProfit: decimal.NewFromFloat(1.0),
	},
	DefaultCategory: {
		Base:      decimal.NewFromFloat(2.0),
		Min:       decimal.NewFromFloat(1.5),
		Max:       decimal.NewFromFloat(2.5),
		MinProfit: decimal.NewFromFloat(1.0),
	},
}

// Metadata carries optional demand signals that adjust the markup.
type Metadata struct {
	// TrendingScore is a 0..1 popularity signal.
	TrendingScore *float64
	// SalesVelocity is average units sold per day.
	SalesVelocity *float64
}

var (
	trendBoostFactor  = decimal.NewFromFloat(0.30)
	velocityBoost     = decimal.NewFromFloat(0.10)
	velocityThreshold = 10.0
)

// BucketFor returns the markup bucket for the category, falling back to the
// default bucket for unknown tags.
func BucketFor(category string) Bucket {
	if b, ok := buckets[strings.ToLower(strings.TrimSpace(category))]; ok {
		return b
	}
	return buckets[DefaultCategory]
}

// CalculateMarkup computes the markup multiplier for a supplier cost.
//
// The base multiplier is adjusted by demand signals, clamped into the
// category's [min, max] range, then raised past the ceiling if needed so the
// absolute profit never drops below the category floor.
func CalculateMarkup(cost decimal.Decimal, category string, meta *Metadata) decimal.Decimal {
	bucket := BucketFor(category)
	multiplier := bucket.Base

	if meta != nil {
		if meta.TrendingScore != nil {
			boost := decimal.NewFromFloat(*meta.TrendingScore).Mul(trendBoostFactor)
			multiplier = multiplier.Add(boost)
		}
		if meta.SalesVelocity != nil && *meta.SalesVelocity > velocityThreshold {
			multiplier = multiplier.Add(velocityBoost)
		}
	}

	if multiplier.LessThan(bucket.Min) {
		multiplier = bucket.Min
	}
	if multiplier.GreaterThan(bucket.Max) {
		multiplier = bucket.Max
	}

	// Profit floor wins over the clamp: thin-cost items still earn the
	// category's minimum absolute profit.
	if cost.IsPositive() {
		profit := cost.Mul(multiplier).Sub(cost)
		if profit.LessThan(bucket.MinProfit) {
			multiplier = cost.Add(bucket.MinProfit).Div(cost)
		}
	}

	return multiplier.Round(2)
}

// CalculateFinalPrice derives the customer price from cost and multiplier.
func CalculateFinalPrice(cost, multiplier decimal.Decimal) decimal.Decimal {
	return cost.Mul(multiplier).Round(2)
}

var categoryPatterns = []struct {
	category string
	pattern  *regexp.Regexp
}{
	{"electronics", regexp.MustCompile(`phone|laptop|computer|tablet|headphone|speaker|camera|tv`)},
	{"fashion", regexp.MustCompile(`shirt|dress|pants|shoes|clothing|fashion|wear|jacket`)},
	{"home-goods", regexp.MustCompile(`home|furniture|decor|kitchen|bedroom|living`)},
	{"accessories", regexp.MustCompile(`watch|jewelry|bag|wallet|accessory|sunglasses`)},
}

// DetectCategory maps a product listing onto a markup category by keyword.
func DetectCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, entry := range categoryPatterns {
		if entry.pattern.MatchString(text) {
			return entry.category
		}
	}
	return DefaultCategory
}

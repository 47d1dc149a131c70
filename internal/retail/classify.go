// Package retail analyses purchase behaviour from individual transactions:
// which purchases are little luxuries, how their share of spending moves
// month to month, where their price sweet spot lies and how actual spending
// lines up with search behaviour.
package retail

import (
	"sort"

	"littleluxuries/internal/sources"
)

// Purchase types
const (
	TypeLittleLuxury = "Little Luxury"
	TypeNecessity    = "Necessity"
	TypeOther        = "Other"
)

// Luxury categories
const (
	LuxuryBeauty       = "Beauty & Cosmetics"
	LuxuryFashion      = "Fashion & Accessories"
	LuxuryFoodTreats   = "Food Treats"
	LuxuryExperiential = "Experiential"
	LuxuryGifts        = "Gifts"
	LuxuryOther        = "Other"
)

// spending category -> luxury category
var luxuryCategories = map[string]string{
	"Personal Hygiene":  LuxuryBeauty,
	"Shopping":          LuxuryFashion,
	"Food":              LuxuryFoodTreats,
	"Friend Activities": LuxuryExperiential,
	"Travel":            LuxuryExperiential,
	"Hobbies":           LuxuryExperiential,
	"Fitness":           LuxuryExperiential,
	"Gifts":             LuxuryGifts,
}

var necessities = map[string]bool{
	"Groceries":             true,
	"Housing and Utilities": true,
	"Transportation":        true,
	"Medical/Dental":        true,
	"Subscriptions":         true,
}

// Classify maps a transaction category onto its purchase type and luxury
// category. Categories outside both lists are Other/Other.
func Classify(category string) (purchaseType, luxuryCategory string) {
	if lux, ok := luxuryCategories[category]; ok {
		return TypeLittleLuxury, lux
	}
	if necessities[category] {
		return TypeNecessity, LuxuryOther
	}
	return TypeOther, LuxuryOther
}

// Purchase is a transaction with its classification
type Purchase struct {
	sources.Transaction
	Type           string
	LuxuryCategory string
}

// IsLuxury reports whether the purchase is a little luxury
func (p Purchase) IsLuxury() bool {
	return p.Type == TypeLittleLuxury
}

// Categorize classifies every transaction, keeping input order
func Categorize(txns []sources.Transaction) []Purchase {
	out := make([]Purchase, len(txns))
	for i, t := range txns {
		typ, lux := Classify(t.Category)
		out[i] = Purchase{Transaction: t, Type: typ, LuxuryCategory: lux}
	}
	return out
}

// TypeTotal is the spending of one purchase type
type TypeTotal struct {
	Type             string
	TransactionCount int
	TotalSpent       float64
	Share            float64 // percent of transactions
}

// Distribution totals the purchases per type, largest spend first
func Distribution(purchases []Purchase) []TypeTotal {
	index := make(map[string]int)
	var out []TypeTotal
	for _, p := range purchases {
		i, ok := index[p.Type]
		if !ok {
			i = len(out)
			index[p.Type] = i
			out = append(out, TypeTotal{Type: p.Type})
		}
		out[i].TransactionCount++
		out[i].TotalSpent += p.TotalSpent
	}
	for i := range out {
		out[i].Share = float64(out[i].TransactionCount) / float64(len(purchases)) * 100
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].TotalSpent > out[b].TotalSpent })
	return out
}

package participant

import (
	"math"
	"sort"
)

// Stats holds the headline KPIs for a table.
type Stats struct {
	Total                int `json:"total"`
	RegisteredBusinesses int `json:"registered_businesses"`
	DisabilityDeclared   int `json:"disability_declared"`
	// Mean of present revenue values, rounded to whole KES. Nil (JSON null)
	// when no record carries a revenue figure; never reported as zero.
	AvgRevenueGoodMonth *float64 `json:"avg_revenue_good_month"`
}

// CountySummary is one per-county aggregate row.
type CountySummary struct {
	County            string  `json:"county"`
	TotalParticipants int     `json:"total_participants"`
	PctYouth          float64 `json:"pct_youth"`
	PctFemaleYouth    float64 `json:"pct_female_youth"`
}

// Summarize computes the KPI set over a table. Records with a missing revenue
// value are excluded from both numerator and denominator of the average;
// substituting zero would silently deflate the mean.
func Summarize(t Table, rules Rules) Stats {
	stats := Stats{Total: len(t)}

	var revenueSum float64
	var revenueCount int
	for _, p := range t {
		if p.BusinessRegistered {
			stats.RegisteredBusinesses++
		}
		if p.DisabilityDeclared {
			stats.DisabilityDeclared++
		}
		if p.RevenueGoodMonth != nil {
			revenueSum += *p.RevenueGoodMonth
			revenueCount++
		}
	}
	if revenueCount > 0 {
		avg := math.Round(revenueSum / float64(revenueCount))
		stats.AvgRevenueGoodMonth = &avg
	}
	return stats
}

// SummarizeCounties groups a table by county and computes youth rates per
// group. Only counties with at least one row appear. Sort order is total
// participants descending, county name ascending on ties, so independent runs
// agree bit-for-bit.
func SummarizeCounties(t Table, rules Rules) []CountySummary {
	type counts struct {
		total       int
		youth       int
		femaleYouth int
	}
	byCounty := make(map[string]*counts)
	for _, p := range t {
		c, ok := byCounty[p.County]
		if !ok {
			c = &counts{}
			byCounty[p.County] = c
		}
		c.total++
		if p.IsYouth(rules) {
			c.youth++
		}
		if p.IsFemaleYouth(rules) {
			c.femaleYouth++
		}
	}

	out := make([]CountySummary, 0, len(byCounty))
	for county, c := range byCounty {
		out = append(out, CountySummary{
			County:            county,
			TotalParticipants: c.total,
			PctYouth:          pct(c.youth, c.total),
			PctFemaleYouth:    pct(c.femaleYouth, c.total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalParticipants != out[j].TotalParticipants {
			return out[i].TotalParticipants > out[j].TotalParticipants
		}
		return out[i].County < out[j].County
	})
	return out
}

// pct returns part/total*100 rounded to one decimal. Callers guarantee
// total > 0: a county only reaches here with at least one row.
func pct(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}

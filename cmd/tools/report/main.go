// Command report prints the participant KPIs and county summary to the
// terminal, optionally filtered, without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kncci/jiinue-dashboard/internal/config"
	"github.com/kncci/jiinue-dashboard/internal/participant"
	"github.com/kncci/jiinue-dashboard/internal/sheet"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config YAML")
	county := flag.String("county", "", "restrict to one county")
	from := flag.String("from", "", "start date (YYYY-MM-DD, inclusive)")
	to := flag.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cache := sheet.NewCache(cfg.CacheTTL(), nil)
	loader := sheet.NewLoader(sheet.NewFetcher(), cache, cfg.Sheet.URL, cfg.Columns, cfg.ParticipantRules())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snapshot, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load participant sheet: %v", err)
	}

	filter := participant.Filter{}
	if *county != "" {
		filter.Counties = []string{*county}
	}
	if t, err := time.Parse("2006-01-02", *from); err == nil {
		filter.From = &t
	}
	if t, err := time.Parse("2006-01-02", *to); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	rows := filter.Apply(snapshot)

	rules := cfg.ParticipantRules()
	stats := participant.Summarize(rows, rules)

	avg := "n/a"
	if stats.AvgRevenueGoodMonth != nil {
		avg = "KES " + strconv.FormatFloat(*stats.AvgRevenueGoodMonth, 'f', 0, 64)
	}

	kpi := table.NewWriter()
	kpi.SetOutputMirror(os.Stdout)
	kpi.AppendHeader(table.Row{"Total Participants", "Registered Businesses", "Disability Declared", "Avg Revenue (Good Month)"})
	kpi.AppendRow(table.Row{stats.Total, stats.RegisteredBusinesses, stats.DisabilityDeclared, avg})
	kpi.Render()

	fmt.Println()

	counties := table.NewWriter()
	counties.SetOutputMirror(os.Stdout)
	counties.AppendHeader(table.Row{"County", "Participants", "% Youth", "% Female Youth"})
	for _, r := range participant.SummarizeCounties(rows, rules) {
		counties.AppendRow(table.Row{
			r.County,
			r.TotalParticipants,
			strconv.FormatFloat(r.PctYouth, 'f', 1, 64),
			strconv.FormatFloat(r.PctFemaleYouth, 'f', 1, 64),
		})
	}
	counties.Render()
}

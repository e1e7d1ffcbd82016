// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package viz aggregates fetched citation records for the dashboard
// charts and renders them with go-echarts.
package viz

import (
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// YearCount is one point of the yearly publication trend.
type YearCount struct {
	Year  string
	Count int
}

// JournalCount is one bar of the journal distribution chart.
type JournalCount struct {
	Journal string
	Count   int
}

// topJournals caps the journal chart.
const topJournals = 10

// YearlyTrends counts publications per year, sorted by year ascending.
// Records with an unknown year are excluded.
func YearlyTrends(records []types.CitationRecord) []YearCount {
	counts := map[string]int{}
	for _, rec := range records {
		if rec.Year != "" && rec.Year != types.UnknownYear {
			counts[rec.Year]++
		}
	}

	out := make([]YearCount, 0, len(counts))
	for year, n := range counts {
		out = append(out, YearCount{Year: year, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// JournalCounts counts publications per journal, sorted by count
// descending and capped at the top ten. Ties break alphabetically so the
// output is deterministic.
func JournalCounts(records []types.CitationRecord) []JournalCount {
	counts := map[string]int{}
	for _, rec := range records {
		counts[rec.Journal]++
	}

	out := make([]JournalCount, 0, len(counts))
	for journal, n := range counts {
		out = append(out, JournalCount{Journal: journal, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Journal < out[j].Journal
	})
	if len(out) > topJournals {
		out = out[:topJournals]
	}
	return out
}

// RenderDashboard writes an HTML page with the trend line chart and the
// journal bar chart for the given records.
func RenderDashboard(w io.Writer, records []types.CitationRecord) error {
	page := components.NewPage()
	page.AddCharts(trendChart(YearlyTrends(records)), journalChart(JournalCounts(records)))
	return page.Render(w)
}

func trendChart(trends []YearCount) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Publication Trends Over Years"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Publications"}),
	)

	years := make([]string, len(trends))
	values := make([]opts.LineData, len(trends))
	for i, t := range trends {
		years[i] = t.Year
		values[i] = opts.LineData{Value: t.Count}
	}
	line.SetXAxis(years).AddSeries("Publications", values)
	return line
}

func journalChart(counts []JournalCount) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Top 10 Journals"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Journal", AxisLabel: &opts.AxisLabel{Rotate: 90}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Publications"}),
	)

	journals := make([]string, len(counts))
	values := make([]opts.BarData, len(counts))
	for i, c := range counts {
		journals[i] = c.Journal
		values[i] = opts.BarData{Value: c.Count}
	}
	bar.SetXAxis(journals).AddSeries("Publications", values)
	return bar
}

// Command report generates offline CSV reports from a groundwater quality
// data file: a grouped statistics table and a correlation matrix for a
// basin/year selection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"wellwq/internal/correlation"
	"wellwq/internal/dataprocessing"
	"wellwq/internal/exporter"
	"wellwq/pkg/contracts/domain"
)

func main() {
	inFile := flag.String("in", "", "input CSV/XLS/XLSX data file (required)")
	outDir := flag.String("out", "reports", "output directory for CSV reports")
	basin := flag.String("basin", "", "basin to select (required, exact match)")
	fromYear := flag.Int("from", 0, "first year of the inclusive range (required)")
	toYear := flag.Int("to", 0, "last year of the inclusive range (required)")
	parameter := flag.String("parameter", "", "parameter for the statistics table (required)")
	stats := flag.String("stats", "mean,median,min,max,standard_deviation,count", "comma-separated statistics to compute")
	method := flag.String("method", correlation.MethodPearson, "correlation method: pearson or spearman")
	flag.Parse()

	if *inFile == "" || *basin == "" || *parameter == "" || *fromYear == 0 || *toYear == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *fromYear > *toYear {
		slog.Error("Invalid year range", "from", *fromYear, "to", *toYear)
		os.Exit(2)
	}

	ctx := context.Background()
	logger := slog.Default()

	normalizer := dataprocessing.NewNormalizer(logger, dataprocessing.DefaultNormalizerConfig())
	ds, err := normalizer.LoadFile(ctx, *inFile)
	if err != nil {
		slog.Error("Failed to load dataset", "file", *inFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Dataset loaded",
		"records", len(ds.Records),
		"parameters", len(ds.Parameters),
		"rows_with_null_date", ds.NullDates)

	subset := dataprocessing.Filter(ds, domain.FilterCriteria{
		Basin:    *basin,
		FromYear: *fromYear,
		ToYear:   *toYear,
	})
	if len(subset) == 0 {
		slog.Info("No data available for the selected basin and year(s)",
			"basin", *basin, "from", *fromYear, "to", *toYear)
		return
	}
	slog.Info("Selection filtered", "rows", len(subset))

	statistics := splitList(*stats)
	writer := exporter.NewCSVWriter(*outDir, logger)

	result, err := dataprocessing.Aggregate(subset, ds.Parameters, domain.AggregationRequest{
		Parameter:  *parameter,
		Statistics: statistics,
	})
	if err != nil {
		slog.Error("Aggregation failed", "parameter", *parameter, "error", err)
		os.Exit(1)
	}
	if err := writer.WriteAggregation("statistics.csv", result, statistics); err != nil {
		slog.Error("Failed to write statistics report", "error", err)
		os.Exit(1)
	}

	matrix, err := correlation.Matrix(subset, ds.Parameters, *method)
	if err != nil {
		slog.Error("Correlation failed", "method", *method, "error", err)
		os.Exit(1)
	}
	if err := writer.WriteCorrelation(fmt.Sprintf("correlation_%s.csv", *method), matrix); err != nil {
		slog.Error("Failed to write correlation report", "error", err)
		os.Exit(1)
	}

	slog.Info("Reports written", "out_dir", *outDir)
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

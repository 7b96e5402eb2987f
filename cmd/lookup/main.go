package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"stmadison/internal/app"
	"stmadison/internal/config"
	"stmadison/internal/repository"
)

// lookup runs commands against the repositories and prints the results.
type lookup struct {
	out         io.Writer
	repos       *app.Repositories
	interactive bool
}

func main() {
	if err := runMain(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runMain(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Keep the terminal for results; only warnings and errors are logged.
	if cfg.Log.Level == "info" || cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	logger, closeLogs := app.NewLogger(cfg)
	defer closeLogs()

	ctx := context.Background()
	start := time.Now()
	h, repos, err := app.Open(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer h.Close()
	l := &lookup{out: os.Stdout, repos: repos}
	l.mounted(time.Since(start))
	if len(args) > 0 {
		return l.run(ctx, strings.Join(args, " "))
	}
	l.interactive = true
	return l.prompt(ctx, os.Stdin)
}

func (l *lookup) mounted(d time.Duration) {
	fmt.Fprintf(l.out, "Remote views mounted in %v\n", d.Truncate(time.Millisecond))
}

// prompt reads commands from in until a blank line or EOF.
func (l *lookup) prompt(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(l.out, "Enter address, parcel=<id>, or 'efficiency' (blank to quit): ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			return nil
		}
		if err := l.run(ctx, input); err != nil {
			fmt.Fprintln(l.out, err)
		}
		if readErr != nil {
			return nil
		}
	}
}

// run dispatches one command. Misses are reported as output, not as errors.
func (l *lookup) run(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	switch {
	case strings.EqualFold(input, "efficiency"):
		return l.efficiency(ctx)
	case strings.HasPrefix(input, "parcel=") || strings.HasPrefix(input, "parcel:"):
		id := strings.TrimPrefix(strings.TrimPrefix(input, "parcel="), "parcel:")
		return l.parcel(ctx, strings.TrimSpace(id))
	default:
		return l.property(ctx, input)
	}
}

func (l *lookup) property(ctx context.Context, address string) error {
	res, err := l.repos.Properties.GetPropertyWithHistory(ctx, address)
	if errors.Is(err, repository.ErrNotFound) {
		fmt.Fprintf(l.out, "No property found for address: %s\n", address)
		return nil
	}
	if err != nil {
		return fmt.Errorf("property lookup failed: %w", err)
	}

	renderProperty(l.out, res.Property)
	fmt.Fprintln(l.out)
	if len(res.TaxRecords) == 0 {
		fmt.Fprintln(l.out, "No tax history on record")
		fmt.Fprintln(l.out, strings.Repeat("-", 80))
		return nil
	}
	lines := historyLines(res.TaxRecords)
	if l.interactive {
		interactiveSelect(lines, func(i int) { renderLevy(l.out, res.TaxRecords[i]) })
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(l.out, line)
	}
	fmt.Fprintln(l.out, strings.Repeat("-", 80))
	return nil
}

func (l *lookup) parcel(ctx context.Context, parcelID string) error {
	if parcelID == "" {
		return errors.New("usage: parcel=<id>")
	}
	rows, err := l.repos.Parcels.GetParcelAssessment(ctx, parcelID)
	if err != nil {
		return fmt.Errorf("assessment lookup failed: %w", err)
	}
	renderAssessments(l.out, parcelID, rows)

	records, err := l.repos.Properties.GetTaxRecords(ctx, parcelID)
	if err != nil {
		return fmt.Errorf("tax roll lookup failed: %w", err)
	}
	for _, line := range historyLines(records) {
		fmt.Fprintln(l.out, line)
	}
	return nil
}

func (l *lookup) efficiency(ctx context.Context) error {
	rows, err := l.repos.Efficiency.GetLandEfficiencyMetrics(ctx)
	if err != nil {
		return fmt.Errorf("land efficiency scan failed: %w", err)
	}
	renderAlignment(l.out, summarizeAlignment(rows))
	return nil
}

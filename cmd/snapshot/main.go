// Command snapshot builds one dashboard snapshot from a feed document and
// writes it to stdout as JSON. Skipped rows are reported on stderr.
//
// Usage:
//
//	go run ./cmd/snapshot -in internal/pipeline/testdata/obce.json -view districts -pretty
//	curl -s https://data.irozhlas.cz/covid-uzis/obce.json | go run ./cmd/snapshot -in -
//	go run ./cmd/snapshot -url https://data.irozhlas.cz/covid-uzis/obce.json -layout partial-week
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"

	"github.com/DataRozhlas/covid-obce/internal/adapter/feed"
	"github.com/DataRozhlas/covid-obce/internal/domain"
	"github.com/DataRozhlas/covid-obce/internal/observability"
	"github.com/DataRozhlas/covid-obce/internal/pipeline"
)

const (
	viewSnapshot       = "snapshot"
	viewDistricts      = "districts"
	viewMunicipalities = "municipalities"
)

type options struct {
	in         string
	url        string
	timeout    time.Duration
	layout     string
	thresholds domain.Thresholds
	view       string
	pretty     bool
}

func main() {
	defaults := domain.DefaultThresholds()

	var opts options
	flag.StringVar(&opts.in, "in", "", "feed document to read, or - for stdin")
	flag.StringVar(&opts.url, "url", "", "feed URL to download instead of -in")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "download timeout for -url")
	flag.StringVar(&opts.layout, "layout", domain.LayoutCurrent, "feed layout: "+strings.Join(domain.LayoutNames(), ", "))
	flag.Float64Var(&opts.thresholds.Level2, "t2", defaults.Level2, "cases per 100k per week for level 2")
	flag.Float64Var(&opts.thresholds.Level3, "t3", defaults.Level3, "cases per 100k per week for level 3")
	flag.Float64Var(&opts.thresholds.Level4, "t4", defaults.Level4, "cases per 100k per week for level 4")
	flag.StringVar(&opts.view, "view", viewSnapshot, "output: snapshot, districts or municipalities")
	flag.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	flag.Parse()

	if (opts.in == "") == (opts.url == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -in or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	if code := run(opts, os.Stdin, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(opts options, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	layout, err := domain.LayoutByName(opts.layout)
	if err != nil {
		logger.Error("invalid layout", "error", err)
		return 2
	}
	if err := opts.thresholds.Validate(); err != nil {
		logger.Error("invalid thresholds", "error", err)
		return 2
	}

	rows, err := readRows(opts, stdin, logger)
	if err != nil {
		logger.Error("read feed", "error", err)
		return 1
	}

	b := pipeline.NewBuilder(layout, domain.DefaultDuplicateNames(), opts.thresholds, clockwork.NewRealClock(), logger)
	snap := b.Build(rows)
	if len(snap.Districts) == 0 {
		logger.Error("no valid rows", "skipped", snap.RowsSkipped)
		return 1
	}

	var out any
	switch opts.view {
	case viewSnapshot:
		out = snap
	case viewDistricts:
		out = snap.Districts
	case viewMunicipalities:
		out = snap.Municipalities
	default:
		logger.Error("unknown view", "view", opts.view)
		return 2
	}

	if err := writeJSON(stdout, out, opts.pretty); err != nil {
		logger.Error("write output", "error", err)
		return 1
	}
	logger.Info("snapshot built",
		"districts", len(snap.Districts),
		"municipalities", len(snap.Municipalities),
		"weeks", snap.Weeks,
		"rows_skipped", snap.RowsSkipped,
	)
	return 0
}

func readRows(opts options, stdin io.Reader, logger *slog.Logger) ([]domain.RawRow, error) {
	if opts.url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()

		client := feed.NewClient(opts.url, opts.timeout, 2, observability.NewMetrics(), logger)
		payload, err := client.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return payload.Rows, nil
	}

	if opts.in == "-" {
		return feed.DecodeRows(stdin)
	}
	f, err := os.Open(opts.in)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return feed.DecodeRows(f)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = sonic.ConfigStd.MarshalIndent(v, "", "  ")
	} else {
		data, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

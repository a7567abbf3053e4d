// Command nearby-query runs one place discovery from the command line and
// prints the result or writes it as an export file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/app"
	"github.com/kailas-cloud/nearby/internal/config"
	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/domain/query"
	"github.com/kailas-cloud/nearby/internal/events"
	"github.com/kailas-cloud/nearby/internal/export"
	logpkg "github.com/kailas-cloud/nearby/internal/logger"
	"github.com/kailas-cloud/nearby/internal/metrics"
	"github.com/kailas-cloud/nearby/internal/usecase/discovery"
	"github.com/kailas-cloud/nearby/internal/version"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// formatText is the human-readable listing; every other value is an export.Format.
const formatText = "text"

type options struct {
	location  string
	category  category.Category
	minRating float64
	limit     int
	order     query.Order
	format    string
	out       string
	logLevel  string
	version   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	q, err := query.New(opts.location, opts.category, opts.minRating, opts.limit, opts.order)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	logger, err := logpkg.NewLogger("cli", opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterProviderMetrics()

	svc, err := app.NewDiscovery(&cfg, events.Nop{}, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	res, err := svc.Discover(logpkg.ContextWithLogger(ctx, logger), q)
	if err != nil {
		fmt.Fprintf(stderr, "search failed (%s): %v\n", domain.ErrorClass(err), err)
		return exitFailed
	}

	if err := write(res, opts, stdout); err != nil {
		logger.Error("write output", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return exitFailed
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("nearby-query", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var cat, order string
	fs.StringVar(&opts.location, "location", "", "free-text location, e.g. \"Ahmedabad\" (required)")
	fs.StringVar(&cat, "category", string(category.Restaurant), "one of: "+categoryList())
	fs.Float64Var(&opts.minRating, "min-rating", 0, "minimum rating, 0-10")
	fs.IntVar(&opts.limit, "limit", query.DefaultLimit, fmt.Sprintf("maximum results, 1-%d", query.MaxLimit))
	fs.StringVar(&order, "order", string(query.OrderDistance), "distance or relevance")
	fs.StringVar(&opts.format, "format", formatText, "text, json, csv, parquet or geojson")
	fs.StringVar(&opts.out, "out", "", "write to this file instead of stdout")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug shows provider requests and raw responses")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.version {
		return opts, nil
	}
	if opts.location == "" && fs.NArg() > 0 {
		opts.location = strings.Join(fs.Args(), " ")
	}

	c, err := category.Parse(cat)
	if err != nil {
		return options{}, err
	}
	opts.category = c
	opts.order = query.Order(order)

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if opts.format != formatText {
		if _, err := export.ParseFormat(opts.format); err != nil {
			return options{}, err
		}
	}
	return opts, nil
}

func categoryList() string {
	all := category.All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func write(res discovery.Result, opts options, stdout io.Writer) (err error) {
	w := stdout
	if opts.out != "" {
		f, createErr := os.Create(opts.out)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", opts.out, createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", opts.out, cerr)
			}
		}()
		w = f
	}

	switch opts.format {
	case formatText:
		return renderText(w, &res)
	case string(export.FormatJSON):
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		records := res.Records
		if records == nil {
			records = []place.Record{}
		}
		return enc.Encode(records)
	default:
		data, err := export.Encode(export.Format(opts.format), res.Records, res.Origin)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
}

// renderText prints one card per place, nearest first.
func renderText(w io.Writer, res *discovery.Result) error {
	q := res.Query
	if len(res.Records) == 0 {
		_, err := fmt.Fprintf(w, "No results found near %s. Try another location or category.\n", q.Location())
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %s result(s) near %s (%s) via %s\n\n",
		len(res.Records), q.Category().Label(), q.Location(), res.Origin, res.Provider)
	for i := range res.Records {
		r := &res.Records[i]
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "   Address:  %s\n", r.Address)
		fmt.Fprintf(&b, "   Category: %s\n", r.Category)
		fmt.Fprintf(&b, "   Rating:   %s\n", r.RatingText)
		fmt.Fprintf(&b, "   Distance: %.2f km\n", r.DistanceKm)
		fmt.Fprintf(&b, "   Open now: %s\n", r.OpenText)
		if r.PhotoURL != "" {
			fmt.Fprintf(&b, "   Photo:    %s\n", r.PhotoURL)
		}
		fmt.Fprintf(&b, "   Map:      %s\n\n", r.MapURL)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

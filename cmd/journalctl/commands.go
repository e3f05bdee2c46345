package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"trade-journal-go/internal/client"
	"trade-journal-go/internal/filter"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `journalctl - query a trade journal server

Usage:
  journalctl [--config dir] [--api-base url] <command> [flags]

Commands:
  trades                 list trades matching the filter flags
  trade <id>             show one trade
  summary                headline metrics of the filtered trades
  breakdown <dimension>  metrics grouped by tag, symbol, accountType, result,
                         compliance, month, weekday or customField:<id>

Filter flags (trades, summary, breakdown):
  --from, --to           datetime bounds (RFC3339 or a date prefix)
  --symbols, --tags      comma-separated symbols / tag ids
  --account, --result    comma-separated account types / results
  --compliant            true or false
  --min-pnl, --max-pnl   P&L bounds
  --custom               custom field filters as a JSON array
  --page, --page-size    pagination (trades only)
`)
}

func dispatch(ctx context.Context, api client.API, out io.Writer, args []string) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "trades":
		f, _, err := parseFilter("trades", args[1:])
		if err != nil {
			return err
		}
		page, err := api.ListTrades(ctx, f)
		if err != nil {
			return err
		}
		return printJSON(out, page)
	case "trade":
		if len(args) < 2 {
			return errors.New("usage: journalctl trade <id>")
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid trade id: %s", args[1])
		}
		trade, err := api.GetTrade(ctx, uint(id))
		if err != nil {
			return err
		}
		return printJSON(out, trade)
	case "summary":
		f, _, err := parseFilter("summary", args[1:])
		if err != nil {
			return err
		}
		summary, err := api.Summary(ctx, f)
		if err != nil {
			return err
		}
		return printJSON(out, summary)
	case "breakdown":
		f, rest, err := parseFilter("breakdown", args[1:])
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return errors.New("usage: journalctl breakdown <dimension> [flags]")
		}
		groups, err := api.Breakdown(ctx, f, rest[0])
		if err != nil {
			return err
		}
		return printJSON(out, groups)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// parseFilter reads filter flags, which may come before or after the
// positional arguments, and returns the positional arguments left over.
func parseFilter(name string, args []string) (filter.Filter, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := map[string]*string{}
	for _, opt := range []struct{ flag, key string }{
		{"from", filter.KeyDateFrom},
		{"to", filter.KeyDateTo},
		{"symbols", filter.KeySymbols},
		{"tags", filter.KeyTagIDs},
		{"account", filter.KeyAccountTypes},
		{"result", filter.KeyResults},
		{"compliant", filter.KeyCompliant},
		{"min-pnl", filter.KeyMinPnL},
		{"max-pnl", filter.KeyMaxPnL},
		{"custom", filter.KeyCustomFields},
		{"page", filter.KeyPage},
		{"page-size", filter.KeyPageSize},
	} {
		flags[opt.key] = fs.String(opt.flag, "", "")
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return filter.Filter{}, nil, fmt.Errorf("%s: %w", name, err)
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	values := url.Values{}
	for key, v := range flags {
		if s := strings.TrimSpace(*v); s != "" {
			values.Set(key, s)
		}
	}
	f, err := filter.ParseQuery(values)
	if err != nil {
		return filter.Filter{}, nil, err
	}
	return f, positional, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

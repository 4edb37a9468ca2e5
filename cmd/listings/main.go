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
	"syscall"

	"github.com/heimat-hq/listings-watcher/internal/app"
	"github.com/heimat-hq/listings-watcher/internal/config"
	"github.com/heimat-hq/listings-watcher/internal/logger"
	"github.com/heimat-hq/listings-watcher/internal/render"
	"github.com/heimat-hq/listings-watcher/pkg/listings"
)

const (
	exitOK = iota
	exitUsage
	exitNetwork
	exitDecode
	exitOther
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("listings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "json", "output format: json or text")
	file := fs.String("file", "", "parse a local JSON document instead of calling the backend")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *format != "json" && *format != "text" {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return exitUsage
	}
	if (*file == "") == (fs.NArg() == 0) {
		fmt.Fprintln(stderr, "usage: listings [-format json|text] (-file doc.json | id [id...])")
		return exitUsage
	}

	resp, err := load(*file, fs.Args(), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "listings: %v\n", err)
		return exitCode(err)
	}

	if err := write(stdout, *format, resp); err != nil {
		fmt.Fprintf(stderr, "listings: write output: %v\n", err)
		return exitOther
	}
	return exitOK
}

func load(file string, ids []string, stderr io.Writer) (listings.ListingResponse, error) {
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return listings.ListingResponse{}, fmt.Errorf("read %s: %w", file, err)
		}
		return listings.Parse(raw)
	}

	cfg, err := config.Load()
	if err != nil {
		return listings.ListingResponse{}, fmt.Errorf("load config: %w", err)
	}
	// stdout carries the listing output
	log := logger.InitTo(cfg, stderr)
	defer logger.Close()

	client, err := app.NewListingClient(cfg, log)
	if err != nil {
		return listings.ListingResponse{}, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, err := client.Fetch(ctx, ids)
	if err != nil {
		return listings.ListingResponse{}, err
	}
	log.DebugObj("listings fetched", "fetch_meta", map[string]any{
		"requested": len(ids),
		"returned":  len(resp.Listings),
	})
	return resp, nil
}

func write(w io.Writer, format string, resp listings.ListingResponse) error {
	if format == "text" {
		return render.Text(w, resp)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, listings.ErrNetwork):
		return exitNetwork
	case errors.Is(err, listings.ErrDecode):
		return exitDecode
	case errors.Is(err, listings.ErrNoIDs):
		return exitUsage
	default:
		return exitOther
	}
}

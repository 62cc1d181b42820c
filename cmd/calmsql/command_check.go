package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/calmsql/calmsql"
	"github.com/calmsql/calmsql/manifest"
	"github.com/calmsql/calmsql/pgsession"
	"github.com/calmsql/calmsql/validate"
)

// ErrValidationFailed is returned when any query produced diagnostics.
var ErrValidationFailed = errors.New("query validation failed")

// CheckCmd represents the check command
type CheckCmd struct {
	Manifest string `help:"Query manifest file (overrides config)" type:"path" optional:""`
	Database string `help:"Database environment to use from config" default:"development"`
	URL      string `help:"Database connection URL (overrides config)" optional:""`
	Timeout  string `help:"Validation timeout duration" default:"1m"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(cliCtx *Context) error {
	config, err := calmsql.LoadConfig(cliCtx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	url := cmd.URL
	if url == "" {
		db, ok := config.Databases[cmd.Database]
		if !ok {
			return fmt.Errorf("database environment %q is not configured", cmd.Database)
		}

		url = db.Connection
	}

	manifestPath := cmd.Manifest
	if manifestPath == "" {
		manifestPath = config.Manifest
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	queries, err := m.BuildQueries()
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(cmd.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout duration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	validator := validate.New(nil)

	results, err := validator.Run(ctx, func(ctx context.Context) (validate.CloseableSession, error) {
		return pgsession.Connect(ctx, url)
	}, queries)
	if err != nil {
		return err
	}

	failed := 0

	for _, result := range results {
		if len(result.Diagnostics) == 0 {
			if !cliCtx.Quiet {
				color.Green("ok: %s", result.Query.Name)

				if cliCtx.Verbose {
					fmt.Printf("    %s\n", oneline(result.Query.SQL))
				}
			}

			continue
		}

		failed++

		for _, diag := range result.Diagnostics {
			color.Red("ERR: %s: %s", result.Query.Name, diag.Message())
		}

		if cliCtx.Verbose {
			fmt.Printf("    %s\n", oneline(result.Query.SQL))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d queries reported diagnostics", ErrValidationFailed, failed, len(results))
	}

	if !cliCtx.Quiet {
		color.Green("all %d queries validated", len(results))
	}

	return nil
}

func oneline(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

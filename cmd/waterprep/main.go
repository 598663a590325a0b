// Waterprep CLI - gridded water-use input data validation and preprocessing
//
// Usage:
//   waterprep check --input data/ --convention convention.yaml --start-year 2000 --end-year 2010
//   waterprep serve --port 8080
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"waterprep/api"
	"waterprep/db/clickhouse"
	"waterprep/decision/policy"
	"waterprep/internal/convention"
	"waterprep/internal/ingest"
	"waterprep/internal/preprocess"
	"waterprep/internal/report"
	"waterprep/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes: 0 proceed (with or without warnings), 2 abort, 10 usage or
// configuration error.
const (
	exitAbort  = 2
	exitConfig = 10
)

func main() {
	app := &cli.App{
		Name:    "waterprep",
		Usage:   "Validate and preprocess gridded water-use input data",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"WATERPREP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "waterprep",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			checkCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// CHECK COMMAND
// =============================================================================

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate a dataset collection and preprocess it for the simulation period",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input directory, organized as <input>/<sector>/<variable>/*.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "convention",
				Aliases:  []string{"c"},
				Usage:    "Path to the data convention document (YAML or JSON)",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "start-year",
				Usage:    "First year of the simulation period",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "end-year",
				Usage:    "Last year of the simulation period",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "time-extend",
				Value: false,
				Usage: "Extend datasets that do not cover the simulation period by edge replication",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format (text, json)",
			},
			&cli.BoolFlag{
				Name:  "store-report",
				Value: false,
				Usage: "Persist the run report to ClickHouse",
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	logger := platform.InitLogger(c.String("log-level"))

	startYear := c.Int("start-year")
	endYear := c.Int("end-year")
	if startYear > endYear {
		return cli.Exit("start-year must not exceed end-year", exitConfig)
	}

	conv, err := convention.Load(c.String("convention"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("convention error: %v", err), exitConfig)
	}

	items, err := ingest.LoadCollection(c.String("input"), conv)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load input data: %v", err), exitConfig)
	}
	logger.Info().Int("datasets", len(items)).Msg("input collection loaded")

	timeExtend := c.Bool("time-extend")
	_, res := preprocess.Process(items, conv, preprocess.Options{
		StartYear:  startYear,
		EndYear:    endYear,
		TimeExtend: timeExtend,
	})
	eval := policy.NewEngine().Evaluate(res)

	rep := &report.Report{
		StartYear:  startYear,
		EndYear:    endYear,
		TimeExtend: timeExtend,
		Results:    res,
		Evaluation: eval,
	}
	rep.Log(logger)

	if c.Bool("store-report") {
		if err := storeReport(c, rep, len(items)); err != nil {
			logger.Error().Err(err).Msg("failed to store run report")
		}
	}

	switch c.String("format") {
	case "json":
		err = rep.WriteJSON(os.Stdout)
	default:
		err = rep.WriteText(os.Stdout)
	}
	if err != nil {
		return err
	}

	if code := report.ExitCode(eval.Outcome); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func storeReport(c *cli.Context, rep *report.Report, datasetCount int) error {
	store, err := clickhouse.NewStore(storeConfig(c))
	if err != nil {
		return err
	}
	defer store.Close()

	run := clickhouse.NewRun(rep.StartYear, rep.EndYear, rep.TimeExtend, datasetCount, rep.Evaluation.Outcome)
	if err := store.SaveRun(context.Background(), run, rep.Results); err != nil {
		return err
	}
	rep.RunID = run.ID.String()
	return nil
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the validation API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"WATERPREP_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"WATERPREP_CORS_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:    "no-store",
				Value:   false,
				Usage:   "Run without a ClickHouse report store",
				EnvVars: []string{"WATERPREP_NO_STORE"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := platform.InitLogger(c.String("log-level"))

	var store *clickhouse.Store
	if !c.Bool("no-store") {
		var err error
		store, err = clickhouse.NewStore(storeConfig(c))
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer store.Close()
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	config := api.DefaultConfig()
	config.Port = c.Int("port")
	config.CORSOrigins = corsOrigins

	server := api.NewServer(store, config, logger)
	return server.StartWithGracefulShutdown()
}

func storeConfig(c *cli.Context) *clickhouse.Config {
	return &clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	}
}

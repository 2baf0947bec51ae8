package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/config"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/handler"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/logger"
	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/middleware"
	"github.com/spf13/cobra"
)

type emptyTablesFlags struct {
	configPath  string
	region      string
	endpointURL string
	tables      []string
	workers     int
	pageSize    int32
	logLevel    string
	assumeYes   bool
}

func newEmptyTablesCmd() *cobra.Command {
	var flags emptyTablesFlags

	cmd := &cobra.Command{
		Use:   "empty-tables",
		Short: "Delete every item from the configured tables, keeping the tables",
		Long: "Scans each configured table for its keys and deletes the items in batches of 25.\n" +
			"The tables themselves are left in place so that terraform destroy can remove them\n" +
			"without touching live data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runEmptyTables(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML file with region, tables and tuning")
	f.StringVar(&flags.region, "region", constants.DefaultAwsRegion, "AWS region of the tables")
	f.StringVar(&flags.endpointURL, "endpoint-url", "", "custom DynamoDB endpoint, e.g. DynamoDB Local")
	f.StringSliceVar(&flags.tables, "table", nil, "table to empty; repeat to replace the configured list")
	f.IntVar(&flags.workers, "workers", constants.DefaultWorkers, "number of tables emptied at once")
	f.Int32Var(&flags.pageSize, "page-size", 0, "maximum items per scan page, 0 for the service default")
	f.StringVar(&flags.logLevel, "log-level", constants.DefaultLogLevel, "log level: debug, info, warn, error")
	f.BoolVarP(&flags.assumeYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// resolveConfig starts from the defaults or the config file and applies only
// the flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, flags emptyTablesFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("region") {
		cfg.AwsRegion = flags.region
	}
	if f.Changed("endpoint-url") {
		cfg.EndpointUrl = flags.endpointURL
	}
	if f.Changed("table") {
		cfg.Tables = flags.tables
	}
	if f.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if f.Changed("page-size") {
		cfg.PageSize = flags.pageSize
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("yes") {
		cfg.AssumeYes = flags.assumeYes
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runEmptyTables(cmd *cobra.Command, cfg config.Config) error {
	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := middleware.NewMiddleware(zapLogger)
	defer log.Sync()

	ctx := context.WithValue(cmd.Context(), constants.CliRequestId, uuid.NewString())
	log.LogHandler(ctx, "Empty tables request received",
		"region", cfg.AwsRegion,
		"endpoint-url", cfg.EndpointUrl,
		"tables", cfg.Tables,
		"workers", cfg.Workers)

	tablesHandler, err := handler.NewTablesHandlerFromConfig(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), log)
	if err != nil {
		log.LogError(ctx, "Unable to create table handler", err)
		return err
	}

	// Per-table failures are reported in the summary and do not change the exit code.
	_, err = tablesHandler.HandleEmptyTables(ctx)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanctionco/thunder-contract-tests/client"
	"github.com/sanctionco/thunder-contract-tests/deps"
	"github.com/sanctionco/thunder-contract-tests/dynamo"
	"github.com/sanctionco/thunder-contract-tests/framework"
	"github.com/sanctionco/thunder-contract-tests/runner"
	"github.com/sanctionco/thunder-contract-tests/testcases"

	"github.com/spf13/cobra"
)

var (
	params     commandParams
	runOptions runParams
)

// dynamoStartTimeout bounds the wait for a locally started DynamoDB to accept connections.
const dynamoStartTimeout = 60 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "thunder-contract-tests",
	Short:         "Integration tests for the Thunder user management service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <testFile>",
	Short: "Run the steps in a test file against the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runTests(ctx, args[0])
	},
}

func init() {
	params.addFlags(rootCmd)
	runOptions.addFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	addUserCommands(rootCmd)
	rootCmd.AddCommand(fakeServiceCmd)
}

func runTests(ctx context.Context, testFile string) error {
	logger := log.New(os.Stdout, "", 0)

	cases, err := testcases.LoadFile(testFile)
	if err != nil {
		return err
	}
	clientConfig, err := params.clientConfig()
	if err != nil {
		return err
	}

	if runOptions.localDeps {
		commands := deps.DefaultCommands()
		if runOptions.configPath != "" {
			config, err := deps.LoadConfig(runOptions.configPath)
			if err != nil {
				return err
			}
			if len(config.Dependencies) != 0 {
				commands = config.Dependencies
			}
		}
		procs, err := deps.Start(commands, logger)
		if err != nil {
			return err
		}
		defer procs.Stop()

		if !runOptions.noBootstrap {
			if err := awaitDynamo(ctx, runOptions.dynamoConfig(), dynamoStartTimeout, os.Stdout); err != nil {
				return err
			}
		}
	}

	if runOptions.awaitService > 0 {
		if err := framework.AwaitService(ctx, clientConfig.Endpoint, runOptions.awaitService, os.Stdout); err != nil {
			return fmt.Errorf("service is not responding: %w", err)
		}
	}

	var bootstrapper runner.Bootstrapper
	if !runOptions.noBootstrap {
		dynamoConfig := runOptions.dynamoConfig()
		dynamoClient, err := dynamo.NewClient(ctx, dynamoConfig)
		if err != nil {
			return err
		}
		bootstrapper = dynamo.NewTableBootstrapper(dynamoClient, dynamoConfig, logger)
	}

	clientLogger := framework.NullLogger()
	if params.verbose {
		clientLogger = log.New(os.Stdout, "  ", 0)
	}
	thunder := client.NewThunderClient(clientConfig, clientLogger)

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, runOptions.filters)

	r := runner.NewRunner(thunder, runner.Config{
		Bootstrapper: bootstrapper,
		Filter:       runOptions.filters.AsFilter,
		TestLogger: &ConsoleTestLogger{
			DebugOutputOnFailure: true,
			DebugOutputOnSuccess: params.verbose,
		},
		Logger:      logger,
		SkipMetrics: !runOptions.metrics,
	})

	fmt.Println("Running full Thunder test...")
	results, err := r.Run(ctx, cases)
	var bootstrapErr *runner.BootstrapError
	if errors.As(err, &bootstrapErr) {
		return err
	}

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	return err
}

// awaitDynamo waits for a DynamoDB that was just started to accept connections, so the
// table bootstrap does not spend its retries on a container that is still starting.
func awaitDynamo(ctx context.Context, config dynamo.Config, timeout time.Duration, out io.Writer) error {
	if err := framework.AwaitService(ctx, config.Endpoint, timeout, out); err != nil {
		return fmt.Errorf("DynamoDB is not responding at %s: %w", config.Endpoint, err)
	}
	return nil
}

package main

import (
	"context"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dexproxy/proxy-client/pkg/metrics"
	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/swap"
)

const (
	appName = "proxyswap"

	logLevelEnv        = "LOG_LEVEL"
	newRelicLicenseEnv = "NEW_RELIC_LICENSE_KEY"

	defaultLogLevel = "info"
)

var (
	flagEnvFile string

	app *newrelic.Application
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Build and submit swaps through the proxy program",
	Long: "Plans bonding curve, AMM and routed swaps against a proxy program deployment,\n" +
		"signs them with PRIVATE_KEY and submits them to a Solana RPC endpoint.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before reading configuration")
}

// setup loads the env file, then configures logging and the optional New
// Relic application for the command being run.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(flagEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "error loading %s", flagEnvFile)
	}

	if license, ok := os.LookupEnv(newRelicLicenseEnv); ok && len(license) > 0 {
		var err error
		app, err = newrelic.NewApplication(
			newrelic.ConfigAppName(appName),
			newrelic.ConfigLicense(license),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error creating new relic application")
		}
	}

	level := defaultLogLevel
	if v, ok := os.LookupEnv(logLevelEnv); ok && len(v) > 0 {
		level = v
	}
	metrics.ConfigureLogger(os.Stderr, level, app)

	cmd.SetContext(metrics.WithApplication(cmd.Context(), app))
	return nil
}

func teardown(*cobra.Command, []string) {
	if app != nil {
		app.Shutdown(5 * time.Second)
	}
}

// environment is everything a command needs to talk to the cluster.
type environment struct {
	log        *logrus.Entry
	config     *swap.Config
	deployment *swap.Deployment
	client     solana.Client
}

func loadEnvironment(ctx context.Context, component string) (*environment, error) {
	cfg := swap.ConfigFromEnv()

	deployment, err := cfg.LoadConfiguredDeployment(ctx)
	if err != nil {
		return nil, err
	}

	endpoint, err := solana.ParseEnvironment(cfg.Endpoint.Get(ctx))
	if err != nil {
		return nil, swap.WithKind(swap.ErrConfiguration, err, "invalid rpc endpoint")
	}

	var opts []solana.ClientOption
	if rps := cfg.RateLimit.Get(ctx); rps > 0 {
		opts = append(opts, solana.WithRateLimit(float64(rps), 1))
	}

	return &environment{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":       "cmd/" + component,
			"deployment": deployment.Name,
		}),
		config:     cfg,
		deployment: deployment,
		client:     solana.New(string(endpoint), opts...),
	}, nil
}

// traced runs fn inside a New Relic transaction named after the command.
func traced(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, end := metrics.StartTransaction(cmd.Context(), app, cmd.CommandPath())
		defer end()

		cmd.SetContext(ctx)
		return fn(cmd, args)
	}
}

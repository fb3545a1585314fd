package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/MeKo-Tech/quadcut/internal/config"
	"github.com/MeKo-Tech/quadcut/internal/metrics"
	"github.com/MeKo-Tech/quadcut/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rootOptions is the state shared by every subcommand of one root command.
type rootOptions struct {
	// Configuration file path.
	cfgFile string
	loader  *config.Loader
	// Resolved configuration, set in PersistentPreRunE.
	cfg *config.Config
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = NewRootCommand()

// NewRootCommand builds a fresh command tree with its own viper instance,
// so repeated in-process executions do not share flag state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{loader: config.NewLoaderWithViper(viper.New())}

	root := &cobra.Command{
		Use:   "quadcut",
		Short: "Perspective correction homographies for image cutting",
		Long: `quadcut computes the projective transform (homography) that maps a
user-drawn quadrilateral onto its corrected shape, solving the 8x8 linear
system with Gaussian elimination and partial pivoting.

This tool provides:
- Homographies from four point correspondences or onto a WxH rectangle
- A general linear system solver with residual reporting
- Parallel batch processing of YAML/JSON job files
- Text, JSON, YAML and CSV output

Examples:
  quadcut homography --src "10,12 410,20 400,600 5,590" --width 400 --height 580
  quadcut solve system.yaml --format json
  quadcut batch jobs/ --workers 4 --continue-on-error`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _ := cmd.Flags().GetBool("version")
			if v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/quadcut, /etc/quadcut)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("policy", "strict", "pivot policy: strict rejects singular systems, propagate returns NaN/Inf")
	pf.Float64("tolerance", config.DefaultConfig().Solver.Tolerance, "relative pivot tolerance for the strict policy")
	pf.String("format", "text", "output format (text, json, yaml, csv)")
	pf.Int("precision", config.DefaultConfig().Output.Precision, "decimals printed for matrix entries")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile after the command")

	// Version flag for tests and usability
	pf.Bool("version", false, "print version information and exit")

	v := opts.loader.GetViper()
	bindFlag(v, "verbose", pf.Lookup("verbose"))
	bindFlag(v, "log_level", pf.Lookup("log-level"))
	bindFlag(v, "solver.policy", pf.Lookup("policy"))
	bindFlag(v, "solver.tolerance", pf.Lookup("tolerance"))
	bindFlag(v, "output.format", pf.Lookup("format"))
	bindFlag(v, "output.precision", pf.Lookup("precision"))
	bindFlag(v, "metrics.file", pf.Lookup("metrics-file"))

	root.AddCommand(
		newHomographyCommand(opts),
		newSolveCommand(opts),
		newBatchCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

// initConfig reads in the config file and ENV variables, then installs the
// slog handler. Logs go to stderr so stdout carries only results.
func (o *rootOptions) initConfig(logOut io.Writer) error {
	cfg, err := o.loader.LoadWithFile(o.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	o.cfg = cfg

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
	slog.SetDefault(logger)

	if used := o.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("configuration loaded", "file", used)
	}
	return nil
}

// logLevel determines the slog level, with verbose taking precedence.
func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// withMetrics runs fn and then exports metrics when metrics.file is set,
// also after a failed run.
func (o *rootOptions) withMetrics(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if o.cfg == nil || o.cfg.Metrics.File == "" {
			return err
		}
		if mErr := metrics.WriteTextfile(o.cfg.Metrics.File); mErr != nil {
			return errors.Join(err, mErr)
		}
		slog.Debug("metrics written", "file", o.cfg.Metrics.File)
		return err
	}
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

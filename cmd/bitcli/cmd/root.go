package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spacemeshos/smutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/bitstreams/config"
)

var (
	// Version is the version of the binary.
	Version string

	// Commit is the commit hash of the binary.
	Commit string

	cfg        = config.DefaultConfig()
	configFile string
	logger     = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bitcli",
	Short: "Read and write bit-packed files",
	Long: `bitcli packs unsigned integers of arbitrary bit width (up to 64) into flat,
headerless files, MSB first, and reads them back.
For more details take a look at the subcommands.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configFile, "config", "", "Path to configuration file")
	flags.String("datadir", cfg.DataDir, "Directory for files created by the demo")
	flags.Uint32("buffer-size", cfg.BufferSize, "Block buffer size in bytes")
	flags.Bool("strict", cfg.Strict, "Report reads past the end of the stream as errors")
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg = loaded

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger, err = newLogger(lvl)
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("config", configFile),
		zap.Strings("overrides", changedFlags(cmd.Flags())),
	)
	return nil
}

// changedFlags lists the flags set explicitly on the command line.
func changedFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.Visit(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	return names
}

// loadConfig merges defaults, the optional config file and the command line
// flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	vip := viper.New()

	if configFile != "" {
		vip.SetConfigFile(smutil.GetCanonicalPath(configFile))
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	loaded := config.DefaultConfig()
	if err := vip.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	loaded.DataDir = smutil.GetCanonicalPath(loaded.DataDir)

	if err := loaded.Validate(); err != nil {
		return nil, err
	}
	return loaded, nil
}

func newLogger(lvl zapcore.Level) (*zap.Logger, error) {
	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}

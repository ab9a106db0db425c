package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	jwt "github.com/krajcik/go-jwt-registry"
	"github.com/krajcik/go-jwt-registry/config"
)

// app carries what every subcommand needs once flags are bound.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	manager *jwt.Manager
	configs *jwt.ConfigRegistry
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "jwtctl",
		Short:         "Create and inspect tokens by type name",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().String("config", "jwt.yaml", "path to the token configuration file")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	a.v.SetEnvPrefix("JWTCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(newCreateCmd(a), newParseCmd(a), newTypesCmd(a))
	return root
}

func (a *app) init() error {
	logger, err := newLogger(a.v.GetString("log_level"))
	if err != nil {
		return err
	}
	a.logger = logger

	path := a.v.GetString("config")
	file, err := config.Load(path)
	if err != nil {
		return err
	}
	for _, spec := range file.Configurations {
		a.logger.Debug("loaded configuration", zap.Stringer("spec", spec))
	}

	configs, types, err := file.Build()
	if err != nil {
		return err
	}

	manager, err := jwt.NewManager(configs, types, jwt.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.configs = configs
	a.manager = manager
	a.logger.Info("token registries ready",
		zap.String("config", path),
		zap.Strings("types", types.Names()),
		zap.Strings("configurations", configs.Names()),
	)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(l)
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// parsePairs turns ["k=v", ...] into a map. Values are decoded as JSON when
// possible so numbers and booleans keep their type.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, errors.New("expected key=value, got " + p)
		}
		out[key] = decodeValue(value)
	}
	return out, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cognilex/asi/engine"
	"github.com/cognilex/asi/internal/profile"
	"github.com/cognilex/asi/ontology"
	"github.com/cognilex/asi/ontology/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "asi",
		Short: "Adaptive semantic integration engine",
		Long: `asi maintains a store of domain concepts extracted from documents,
scores how interpretable the store is, compresses it when it drifts,
and produces scaffolding that constrains text generation.`,
		SilenceUsage: true,
	}
)

func init() {
	viper.SetEnvPrefix("asi")
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of the engine: "prod", "dev" or "demo"`)
	flags.String("data", "", "data directory")
	flags.String("driver", "", `database driver: "sqlite", "postgres" or empty for in-memory`)
	flags.String("dsn", "", "database connection string")
	flags.String("config", "", "path to the engine configuration file")

	for _, name := range []string{"mode", "data", "driver", "dsn", "config"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(analyzeCmd, scoreCmd, compressCmd, scaffoldCmd, validateCmd, renderCmd)
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
		Config: viper.GetString("config"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openEngine builds the engine from the profile: configuration, persistence
// driver, loaded store. The returned closer releases the driver.
func openEngine(ctx context.Context, p *profile.Profile) (*engine.Engine, func(), error) {
	cfg := engine.DefaultConfig()
	if p.Config != "" {
		loaded, err := engine.LoadConfig(p.Config)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	var driver ontology.Driver
	if p.Driver != "" {
		d, err := db.NewDriver(p)
		if err != nil {
			return nil, nil, err
		}
		driver = d
	}

	eng, err := engine.New(ctx, cfg, driver)
	if err != nil {
		if driver != nil {
			_ = driver.Close()
		}
		return nil, nil, err
	}
	closer := func() {
		if err := eng.Close(); err != nil {
			slog.Warn("failed to close engine", "error", err)
		}
	}
	return eng, closer, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "asi: %v\n", err)
		os.Exit(1)
	}
}

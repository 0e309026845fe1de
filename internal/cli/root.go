// Package cli implements gymctl, the operator command line for migrations and
// subscription maintenance.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"gymsubs/internal/bootstrap"
	"gymsubs/internal/config"
	"gymsubs/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the gymctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gymctl",
		Short:         "Gym subscription maintenance tool",
		Long:          `gymctl runs database migrations and inspects or changes user subscriptions.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCommand(),
		newPlansCommand(),
		newEntitlementCommand(),
		newLimitsCommand(),
		newPlanCommand(),
		newPubSubCommand(),
		newJWKSCommand(),
	)
	return root
}

// runtime is what every subcommand needs: the logger and the service container.
type runtime struct {
	logger    zerolog.Logger
	container *bootstrap.Container
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	log := logger.New()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, log, err
	}
	return cfg, log.Level(logger.ParseLevel(cfg.LogLevel)), nil
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &runtime{logger: log, container: c}, nil
}

func (r *runtime) close() {
	r.container.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

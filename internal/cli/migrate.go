package cli

import (
	"gymsubs/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}
	cmd.AddCommand(
		newMigrateDirectionCommand("up", "Run all pending migrations", database.MigrateUp),
		newMigrateDirectionCommand("down", "Roll back the latest migration", database.MigrateDown),
		newMigrateDirectionCommand("status", "Show migration status", database.MigrateStatus),
	)
	return cmd
}

func newMigrateDirectionCommand(use, short string, dir database.Direction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return database.Migrate(cmd.Context(), rt.container.Pool, dir, rt.logger)
		},
	}
}

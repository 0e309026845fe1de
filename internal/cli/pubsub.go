package cli

import (
	"errors"

	"gymsubs/internal/pubsub"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

func newPubSubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubsub",
		Short: "Plan event topic provisioning",
	}

	var reset bool
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the plan events topic, its dead letter topic and subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.PubSubPlanEventsTopic == "" {
				return errors.New("PUBSUB_PLAN_EVENTS_TOPIC is not set")
			}

			var opts []option.ClientOption
			switch {
			case cfg.PubSubEmulatorHost != "":
				opts = pubsub.EmulatorOptions(cfg.PubSubEmulatorHost)
			case reset:
				return errors.New("--reset is only allowed against the emulator (PUBSUB_EMULATOR_HOST)")
			case cfg.GCPCredentialsFile != "":
				opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
			}

			admin, err := pubsub.NewAdmin(cmd.Context(), cfg.GCPProjectID, log, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = admin.Close() }()

			if reset {
				if err := admin.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			if err := admin.SetupPlanEvents(cmd.Context(), cfg.PubSubPlanEventsTopic); err != nil {
				return err
			}
			log.Info().Str("topic", cfg.PubSubPlanEventsTopic).Msg("Pub/Sub setup complete")
			return nil
		},
	}
	setupCmd.Flags().BoolVar(&reset, "reset", false, "Delete all topics and subscriptions first (emulator only)")

	cmd.AddCommand(setupCmd)
	return cmd
}

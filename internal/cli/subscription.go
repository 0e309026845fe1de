package cli

import (
	"errors"
	"fmt"

	"gymsubs/internal/model"

	"github.com/spf13/cobra"
)

func newPlansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Subscription plan catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			plans, err := rt.container.Plans.ListPlans(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plans)
		},
	})
	return cmd
}

func newEntitlementCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Show the plan a user is entitled to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			ent, err := rt.container.Entitlements.Resolve(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ent)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLimitsCommand() *cobra.Command {
	var userID, resource string
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Check a user's usage against plan limits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if resource == "" {
				reports, err := rt.container.Limits.CheckAll(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reports)
			}
			report, err := rt.container.Limits.Check(cmd.Context(), userID, model.Resource(resource))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	cmd.Flags().StringVarP(&resource, "resource", "r", "", "workout or custom_exercise (default: all)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Change user subscriptions",
	}

	var userID string
	var planID int64
	change := &cobra.Command{
		Use:   "change",
		Short: "Move a user to another plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if planID <= 0 {
				return errors.New("--plan must be a positive plan id")
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.container.Plans.ChangePlan(cmd.Context(), userID, planID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	change.Flags().StringVarP(&userID, "user", "u", "", "User id")
	change.Flags().Int64VarP(&planID, "plan", "p", 0, "Target plan id")
	_ = change.MarkFlagRequired("user")
	_ = change.MarkFlagRequired("plan")

	var defaultUserID string
	ensure := &cobra.Command{
		Use:   "ensure-default",
		Short: "Bind a user without an active subscription to the default plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			created, err := rt.container.Plans.EnsureDefaultSubscription(cmd.Context(), defaultUserID)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "default subscription created for %s\n", defaultUserID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has an active subscription\n", defaultUserID)
			}
			return nil
		},
	}
	ensure.Flags().StringVarP(&defaultUserID, "user", "u", "", "User id")
	_ = ensure.MarkFlagRequired("user")

	cmd.AddCommand(change, ensure)
	return cmd
}

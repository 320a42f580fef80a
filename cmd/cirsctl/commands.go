package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cirs/cirs-api/internal/app"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/audit"
)

func newSeedCmd(withApp appRunner) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the demo data into empty collections",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			written, err := a.Seeder.Run(cmd.Context(), force)
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to seed, every collection already exists")
				return nil
			}
			for _, key := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", key)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing collections")
	return cmd
}

func newReportCmd(withApp appRunner) *cobra.Command {
	var (
		upload bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the vaccination report",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			reports := a.Services.Reports
			if upload {
				res, err := reports.Upload(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			data, name, err := reports.Export(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s\n", name, output)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the report to object storage")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	return cmd
}

func newRegistrationsCmd(withApp appRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registrations",
		Aliases: []string{"reg"},
		Short:   "Review account sign-ups",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registrations, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			filter := model.RegistrationFilter{Status: model.RegistrationStatus(status)}
			regs, err := a.Services.Registrations.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tCREATED")
			for _, r := range regs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Email, r.FullName, r.Role, r.Status, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		}),
	}
	list.Flags().StringVar(&status, "status", "", "Only show registrations in this status (pending, approved, rejected)")

	var reviewer string
	review := func(use, short string, approve bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				svc := a.Services.Registrations
				var (
					v      *model.RegistrationView
					err    error
					action = model.AuditActionReject
				)
				if approve {
					action = model.AuditActionApprove
					v, err = svc.Approve(cmd.Context(), args[0], reviewer)
				} else {
					v, err = svc.Reject(cmd.Context(), args[0], reviewer)
				}
				if err != nil {
					return err
				}
				// The process exits right after, so the entry is written inline.
				if err := a.AuditLogger.LogSync(cmd.Context(), reviewer, action, model.AuditEntityRegistration, v.ID,
					&audit.LogOptions{UserAgent: "cirsctl"}); err != nil {
					return fmt.Errorf("failed to record audit entry: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", v.Status, v.Email, v.ID)
				return nil
			}),
		}
	}

	approveCmd := review("approve", "Approve a pending registration and create the account", true)
	rejectCmd := review("reject", "Reject a pending registration", false)
	cmd.PersistentFlags().StringVar(&reviewer, "reviewer", "cirsctl", "Reviewer recorded on the registration")

	cmd.AddCommand(list, approveCmd, rejectCmd)
	return cmd
}

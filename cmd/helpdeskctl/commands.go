package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func newMigrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Long:  `Apply every *.sql file not yet recorded in schema_migrations, in lexical order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			if dir == "" {
				dir = rt.cfg.Postgres.MigrationsDir
			}
			applied, err := persistence.RunMigrations(cmd.Context(), rt.pg.PoolHandle(), dir, rt.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

func newInviteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage super-admin invite codes",
	}
	cmd.AddCommand(newInviteIssueCommand(), newInviteListCommand(), newInviteRevokeCommand())
	return cmd
}

func newInviteIssueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Issue a bootstrap invite code",
		Long:  `Issue an invite with no issuing profile. Use it to register the first super admin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			invite, err := rt.container.Invites.IssueBootstrap(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "code:       %s\nexpires_at: %s\n", invite.Code, invite.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newInviteListCommand() *cobra.Command {
	var (
		email string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invite codes with their state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			filter := repository.InviteFilter{Limit: limit}
			if email != "" {
				filter.UsedByEmail = &email
			}
			records, err := rt.container.Repos.Invites.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tSTATE\tUSED BY\tEXPIRES")
			for _, rec := range records {
				usedBy := "-"
				if rec.UsedByEmail != nil {
					usedBy = *rec.UsedByEmail
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.Invite.ID, rec.Invite.Code, rec.Invite.StateAt(now), usedBy,
					rec.Invite.ExpiresAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Filter by redeemer email (substring, case-insensitive)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum rows to print")
	return cmd
}

func newInviteRevokeCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "revoke <invite-id>",
		Short: "Revoke an unused invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.container.Invites.RevokeAsOperator(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason stored with the invite")
	return cmd
}

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage super-admin profiles",
	}
	cmd.AddCommand(newProfileDeactivateCommand())
	return cmd
}

func newProfileDeactivateCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "deactivate <profile-id>",
		Short: "Deactivate a profile and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.container.Deactivation.DeactivateAsOperator(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			for _, step := range domain.DeactivationCascade {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %d\n", step, result[step])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the audit log")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/goldrate"
	"github.com/tair/goldlink/internal/migrations"
	"github.com/tair/goldlink/internal/user"
	"github.com/tair/goldlink/internal/user/usecase/command"
	"github.com/tair/goldlink/pkg/cache"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := migrations.Run(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func createOwnerCmd(configPath *string) *cobra.Command {
	var (
		name     string
		email    string
		phone    string
		password string
		operator string
	)

	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create a jeweler account",
		Long: `Create an owner (jeweler) account. Owners cannot sign up through the API.

The password may be passed with --password or the GOLDLINK_OWNER_PASSWORD
environment variable.

Examples:
  goldlink-admin create-owner --email shop@example.com --name "Rao Jewellers"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GOLDLINK_OWNER_PASSWORD")
			}
			if password == "" {
				return errors.New("a password is required (--password or GOLDLINK_OWNER_PASSWORD)")
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := migrations.Run(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			h, err := user.InitializeBootstrapOwner(e.db)
			if err != nil {
				return err
			}
			owner, err := h.Handle(cmd.Context(), command.BootstrapOwnerCommand{
				Name:     name,
				Email:    email,
				Password: password,
				Phone:    phone,
				Operator: operator,
			})
			if err != nil {
				return fmt.Errorf("create owner: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created owner %s (%s)\n", owner.ID, owner.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&operator, "operator", os.Getenv("USER"), "who is running the command, recorded in the audit log")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func refreshRatesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-rates",
		Short: "Fetch and store current gold rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			client := cache.NewRedisClient(e.cfg.Redis.Addr, e.cfg.Redis.Password, e.cfg.Redis.DB)
			if client != nil {
				defer client.Close()
			}

			h, err := goldrate.InitializeRefreshRates(e.db, client)
			if err != nil {
				return err
			}
			rates, err := h.Handle(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh rates: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KARAT\tPRICE/GRAM\tSOURCE\tFETCHED")
			for _, r := range rates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Karat, r.PricePerGram.StringFixed(2), r.Source, r.FetchedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func auditCmd(configPath *string) *cobra.Command {
	var (
		entityType string
		entityID   string
		action     string
		limit      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
		Long: `List audit entries for one entity or for one action.

Examples:
  goldlink-admin audit --entity-type settlement --entity-id 5f0c...
  goldlink-admin audit --action PAYMENT_SUCCESS --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			byEntity := entityType != "" && entityID != ""
			if !byEntity && action == "" {
				return errors.New("pass --entity-type and --entity-id, or --action")
			}

			e, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			repo := audit.NewGormRepository(e.db)
			var entries []audit.Entry
			if byEntity {
				entries, err = repo.ListByEntity(cmd.Context(), entityType, entityID)
			} else {
				entries, err = repo.ListByAction(cmd.Context(), audit.Action(action), limit)
			}
			if err != nil {
				return fmt.Errorf("list audit entries: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tACTION\tACTOR\tENTITY\tMETA")
			for _, en := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\n",
					en.CreatedAt.Format("2006-01-02 15:04:05"), en.Action, en.ActorUserID, en.EntityType, en.EntityID, en.Meta)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&entityType, "entity-type", "", "entity type, e.g. application or settlement")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	cmd.Flags().StringVar(&action, "action", "", "action tag, e.g. APPROVE_APPLICATION")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries when listing by action")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"techsync/api/internal/app"
	"techsync/api/internal/config"
	"techsync/api/internal/docid"
	"techsync/api/internal/erp"
	"techsync/api/internal/logging"
)

var (
	logLevel string
	showData bool
	llmName  string

	adminName     string
	adminEmail    string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:           "erpctl",
	Short:         "Administrative tool for the techsync ERP",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var validateCmd = &cobra.Command{
	Use:       "validate {cpf|cnpj|doc} <value>",
	Short:     "Check a CPF or CNPJ check digits",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"cpf", "cnpj", "doc"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			kind docid.Kind
			ok   bool
		)
		switch strings.ToLower(args[0]) {
		case "cpf":
			kind, ok = docid.KindCPF, docid.ValidateCPF(args[1])
		case "cnpj":
			kind, ok = docid.KindCNPJ, docid.ValidateCNPJ(args[1])
		case "doc", "document":
			kind, ok = docid.Validate(args[1])
		default:
			return fmt.Errorf("unknown document kind %q", args[0])
		}
		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintf(out, "invalid %s\n", labelOf(kind))
			return fmt.Errorf("%s is not a valid %s", args[1], labelOf(kind))
		}
		_, formatted, _ := docid.Format(args[1])
		fmt.Fprintf(out, "valid %s %s\n", labelOf(kind), formatted)
		return nil
	},
}

func labelOf(k docid.Kind) string {
	if k == docid.KindUnknown {
		return "document"
	}
	return strings.ToUpper(string(k))
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a question about the ERP data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			p := a.Assistant
			if llmName != "" {
				eng, err := a.Engines.GetEngine(llmName)
				if err != nil {
					return err
				}
				p = p.WithCompleter(eng)
			}
			ctx, cancel := context.WithTimeout(ctx, a.Config.AskTimeout)
			defer cancel()

			ans, err := p.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ans.Text)
			if showData {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ans.Data)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a profile with the admin role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			p, err := a.ERP.CreateProfile(ctx, erp.ProfileInput{
				Name:     adminName,
				Email:    adminEmail,
				Password: adminPassword,
				Role:     erp.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", p.Email, p.ID)
			return nil
		})
	},
}

// withApp loads the environment configuration and builds the shared services
// around fn.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, logger.With(zap.String("cmd", "erpctl")))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	askCmd.Flags().BoolVar(&showData, "data", false, "also print the fetched data as JSON")
	askCmd.Flags().StringVar(&llmName, "llm", "", "engine to use (gpt or gemini)")

	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login e-mail")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(validateCmd, askCmd, migrateCmd, createAdminCmd)
}

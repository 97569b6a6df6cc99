package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/config"
	"tbpedia-dashboard/internal/db"
	"tbpedia-dashboard/internal/logger"
	"tbpedia-dashboard/internal/services"
	"tbpedia-dashboard/internal/session"
)

// app is what every subcommand shares once the root has initialized.
type app struct {
	apiURL   string
	credPath string
	verbose  bool

	log      zerolog.Logger
	client   *apiclient.Client
	auth     *services.AuthService
	audit    *services.AuditService
	store    *session.Store
	database *sql.DB
	openDB   func(dbURL string, logger zerolog.Logger) (*sql.DB, error)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{openDB: db.Open}

	rootCmd := &cobra.Command{
		Use:           "tbpedia",
		Short:         "Operate the TBPedia marketplace from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.database != nil {
				a.database.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (defaults to API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&a.credPath, "credential", "", "credential file (defaults to the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log API traffic")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newListCommand(a),
		newHideCommand(a, true),
		newHideCommand(a, false),
		newOrderStatusCommand(a),
	)

	return rootCmd
}

func (a *app) setup() error {
	if a.apiURL != "" {
		if err := os.Setenv("API_BASE_URL", a.apiURL); err != nil {
			return err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.InitLogger(level)

	a.client, err = apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	if a.credPath == "" {
		if a.credPath, err = session.DefaultFilePath(); err != nil {
			return fmt.Errorf("locate credential file: %w", err)
		}
	}

	if cfg.DBUrl != "" {
		if a.database, err = a.openDB(cfg.DBUrl, a.log); err != nil {
			return err
		}
	}
	a.audit = services.NewAuditService(a.database, a.log)
	a.auth = services.NewAuthService(a.client, a.log)
	a.store = a.auth.NewStore(session.NewFileJar(a.credPath))
	return nil
}

// signedIn restores the session or explains how to get one.
func (a *app) signedIn(ctx context.Context) (context.Context, error) {
	if err := a.store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("session could not be restored (%w), run `tbpedia login`", err)
	}
	if a.store.User() == nil {
		return nil, fmt.Errorf("not signed in, run `tbpedia login`")
	}
	return session.NewContext(ctx, a.store), nil
}

// catalog returns a catalog bound to the restored session. A 401 from any
// call removes the credential file.
func (a *app) catalog() *services.CatalogService {
	return services.NewCatalogService(a.client.WithSession(a.store, a.store.Expire), a.audit, a.log)
}

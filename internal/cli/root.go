package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/regen-tracker/pkg/config"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

const defaultAPIURL = "http://localhost:8080"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	debug        bool
	apiURL       string
	accessToken  string
	refreshToken string
	timezone     string
	backend      BackendFactory
}

// NewRootCmd creates the regenctl root command backed by the configured
// PostgreSQL database.
func NewRootCmd(version string) *cobra.Command {
	return NewRootCmdWithBackend(version, OpenBackend)
}

// NewRootCmdWithBackend creates the root command with an explicit backend
// factory so tests can run the database commands without PostgreSQL.
func NewRootCmdWithBackend(version string, backend BackendFactory) *cobra.Command {
	opts := &rootOptions{backend: backend}

	cmd := &cobra.Command{
		Use:           "regenctl",
		Short:         "ReGen waste tracker admin and client CLI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       rootCmdExample,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd, opts.debug)
		},
	}

	apiURL := os.Getenv("REGEN_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	timezone := os.Getenv("APP_TIMEZONE")
	if timezone == "" {
		timezone = config.DefaultTimezone
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", apiURL, "ReGen API base URL")
	cmd.PersistentFlags().StringVar(&opts.accessToken, "token", os.Getenv("REGEN_ACCESS_TOKEN"), "access token for API commands")
	cmd.PersistentFlags().StringVar(&opts.refreshToken, "refresh-token", os.Getenv("REGEN_REFRESH_TOKEN"), "refresh token for API commands")
	cmd.PersistentFlags().StringVar(&opts.timezone, "timezone", timezone, "timezone the server uses for collection dates")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newSeedFacilitiesCmd(opts),
		newReconcileCmd(opts),
		newExportLogsCmd(opts),
		newLoginCmd(opts),
		newLogCmd(opts),
		newLogsCmd(opts),
		newFacilitiesCmd(opts),
	)

	return cmd
}

// ErrorMessage returns the text to show a user for err. Validation errors
// carry a user-facing message that is shown as is.
func ErrorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// setupLogging sends zerolog output to stderr so stdout stays parseable.
func setupLogging(cmd *cobra.Command, debug bool) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		With().
		Timestamp().
		Str("component", "regenctl").
		Logger()
}

const rootCmdExample = `  # Create tables and indexes
  regenctl migrate

  # Load recycling centers from a YAML file
  regenctl seed-facilities --file facilities.yaml

  # Recompute every profile's totals from the entry log
  regenctl reconcile

  # Export all collected entries to a spreadsheet
  regenctl export-logs --status collected --out collected.xlsx

  # Sign in and log an entry through the API
  eval "$(regenctl login --email amina@example.com --password ...)"
  regenctl log --type Plastic --weight 2.5 --address "12 Moi Avenue" --region Nairobi`

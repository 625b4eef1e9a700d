package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/regenapi"
	"github.com/zatekoja/regen-tracker/pkg/config"
)

func (o *rootOptions) apiClient() *regenapi.Client {
	session := regenapi.NewSession()
	session.Restore(o.accessToken, o.refreshToken)
	app := config.AppConfig{Timezone: o.timezone}
	validator := waste.NewValidator(time.Now, app.Location())
	return regenapi.NewClient(o.apiURL, session, regenapi.WithValidator(validator))
}

func (o *rootOptions) requireToken() error {
	if o.accessToken == "" && o.refreshToken == "" {
		return errors.New("not signed in: run regenctl login or set REGEN_ACCESS_TOKEN")
	}
	return nil
}

// printTokens prints the session tokens as shell exports when the client
// obtained new ones during the command.
func printTokens(w io.Writer, before string, session *regenapi.Session) {
	access, refresh := session.Tokens()
	if access == "" || access == before {
		return
	}
	fmt.Fprintf(w, "export REGEN_ACCESS_TOKEN=%s\n", access)
	if refresh != "" {
		fmt.Fprintf(w, "export REGEN_REFRESH_TOKEN=%s\n", refresh)
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the tokens as shell exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := opts.apiClient()
			result, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printTokens(cmd.OutOrStdout(), "", client.Session())
			fmt.Fprintf(cmd.ErrOrStderr(), "Signed in as %s (%d points)\n", result.User.Name, result.User.Points)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var draft waste.Draft
	var weight string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a waste entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			draft.Weight = waste.WeightInput(weight)

			client := opts.apiClient()
			result, err := client.LogWaste(cmd.Context(), draft)
			if err != nil {
				return err
			}

			e := result.Entry
			p := result.Profile
			cmd.Printf("Logged %g kg %s at %s (%.2f kg CO2 saved)\n", e.WeightKg, e.WasteType, e.CollectionLocation, e.CO2SavedKg)
			cmd.Printf("Disposal: %s\n", e.DisposalMethod)
			cmd.Printf("Totals: %d points, %.2f kg CO2 saved, %.2f kg recycled\n", p.Points, p.TotalCO2SavedKg, p.TotalWasteRecycledKg)
			printTokens(cmd.ErrOrStderr(), opts.accessToken, client.Session())
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.WasteType, "type", "", "waste type, e.g. Plastic")
	cmd.Flags().StringVar(&weight, "weight", "", "weight in kg")
	cmd.Flags().StringVar(&draft.Address, "address", "", "collection address")
	cmd.Flags().StringVar(&draft.Region, "region", "", "region, e.g. Nairobi")
	cmd.Flags().StringVar(&draft.CollectionDate, "date", "", "collection date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&draft.FacilityID, "facility", "", "nearest facility id")
	cmd.Flags().StringVar(&draft.ImageURL, "image", "", "image URL")
	return cmd
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List your waste entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client := opts.apiClient()
			entries, err := client.ListWasteLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LOGGED\tTYPE\tWEIGHT\tCO2\tSTATUS\tLOCATION")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%g\t%.2f\t%s\t%s\n",
					e.LoggedAt.Format("2006-01-02 15:04"), e.WasteType, e.WeightKg, e.CO2SavedKg, e.CollectionStatus, e.CollectionLocation)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newFacilitiesCmd(opts *rootOptions) *cobra.Command {
	var (
		region    string
		wasteType string
		types     []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "facilities",
		Short: "List recycling centers",
		Long: `Lists recycling centers. With both --region and --waste-type it returns
the active centers in that region that accept the waste type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := opts.apiClient()

			var (
				facilities []entities.Facility
				err        error
			)
			if region != "" && wasteType != "" && len(types) == 0 {
				facilities, err = client.FindNearby(cmd.Context(), region, wasteType)
			} else {
				facilities, _, err = client.ListFacilities(cmd.Context(), regenapi.FacilityQuery{
					Region:        region,
					WasteType:     wasteType,
					FacilityTypes: types,
					PerPage:       100,
				})
			}
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), facilities)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tREGION\tACCEPTS\tHOURS")
			for _, f := range facilities {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					f.Name, f.FacilityType, f.Region, strings.Join(f.AcceptedTypes, ", "), f.OperatingHours)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "filter by region")
	cmd.Flags().StringVar(&wasteType, "waste-type", "", "filter by accepted waste type")
	cmd.Flags().StringSliceVar(&types, "type", nil, "filter by facility type (recycling, dumpsite, biogas)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
)

const (
	logsSheet    = "Waste Logs"
	summarySheet = "Summary"
	exportPage   = 500
)

var logColumns = []string{
	"ID", "User ID", "Waste Type", "Weight (kg)", "CO2 Saved (kg)", "Disposal Method",
	"Collection Location", "Region", "Status", "Collection Date", "Facility ID", "Logged At",
}

func newExportLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		out    string
		userID string
		status string
	)

	cmd := &cobra.Command{
		Use:   "export-logs",
		Short: "Export waste entries to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := repositories.WasteLogFilter{UserID: userID}
			if status != "" {
				parsed, ok := entities.ParseCollectionStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = parsed
			}

			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				entries, err := collectEntries(cmd.Context(), b.WasteLogs, filter)
				if err != nil {
					return err
				}

				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := writeWasteLogWorkbook(f, entries); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				cmd.Printf("Exported %d entries to %s\n", len(entries), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "waste-logs.xlsx", "output file")
	cmd.Flags().StringVar(&userID, "user", "", "only entries of this user")
	cmd.Flags().StringVar(&status, "status", "", "only entries with this collection status")
	return cmd
}

func collectEntries(ctx context.Context, repo repositories.WasteLogRepository, filter repositories.WasteLogFilter) ([]*entities.WasteEntry, error) {
	var all []*entities.WasteEntry
	filter.Limit = exportPage
	for {
		page, total, err := repo.ListAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		filter.Offset += len(page)
		if len(page) == 0 || filter.Offset >= total {
			return all, nil
		}
	}
}

// writeWasteLogWorkbook writes one row per entry plus a per-type summary
// whose points follow the same rounding as profile totals.
func writeWasteLogWorkbook(w io.Writer, entries []*entities.WasteEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", logsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	header := make([]interface{}, len(logColumns))
	for i, c := range logColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(logsSheet, "A1", &header); err != nil {
		return err
	}

	byType := make(map[entities.WasteType]entities.ProfileTotals)
	counts := make(map[entities.WasteType]int)
	var overall entities.ProfileTotals

	for i, e := range entries {
		collectionDate := ""
		if e.CollectionDate != nil {
			collectionDate = e.CollectionDate.Format("2006-01-02")
		}
		row := []interface{}{
			e.ID, e.UserID, string(e.WasteType), e.WeightKg, e.CO2SavedKg, e.DisposalMethod,
			e.CollectionLocation, e.Region, string(e.CollectionStatus), collectionDate, e.FacilityID,
			e.LoggedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(logsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}

		byType[e.WasteType] = waste.ApplyNewEntry(byType[e.WasteType], *e)
		counts[e.WasteType]++
		overall = waste.ApplyNewEntry(overall, *e)
	}

	types := make([]entities.WasteType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	_ = f.SetSheetRow(summarySheet, "A1", &[]interface{}{"Waste Type", "Entries", "Weight (kg)", "CO2 Saved (kg)", "Points"})
	row := 2
	for _, t := range types {
		totals := byType[t]
		_ = f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", row), &[]interface{}{
			string(t), counts[t], totals.TotalWasteRecycledKg, totals.TotalCO2SavedKg, totals.Points,
		})
		row++
	}
	_ = f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", row), &[]interface{}{
		"Total", len(entries), overall.TotalWasteRecycledKg, overall.TotalCO2SavedKg, overall.Points,
	})

	return f.Write(w)
}

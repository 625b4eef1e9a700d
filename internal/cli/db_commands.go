package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("Schema is up to date")
				return nil
			})
		},
	}
}

// facilitySeed is one facility in a seed file. is_active defaults to true.
type facilitySeed struct {
	Name           string   `yaml:"name"`
	Location       string   `yaml:"location"`
	Region         string   `yaml:"region"`
	Latitude       float64  `yaml:"latitude"`
	Longitude      float64  `yaml:"longitude"`
	FacilityType   string   `yaml:"facility_type"`
	Contact        string   `yaml:"contact"`
	OperatingHours string   `yaml:"operating_hours"`
	AcceptedTypes  []string `yaml:"accepted_types"`
	IsActive       *bool    `yaml:"is_active"`
}

type seedFile struct {
	Facilities []facilitySeed `yaml:"facilities"`
}

func loadFacilitySeeds(path string) ([]*entities.Facility, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seeds seedFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&seeds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(seeds.Facilities) == 0 {
		return nil, fmt.Errorf("%s has no facilities", path)
	}

	facilities := make([]*entities.Facility, 0, len(seeds.Facilities))
	for _, s := range seeds.Facilities {
		active := true
		if s.IsActive != nil {
			active = *s.IsActive
		}
		facilities = append(facilities, &entities.Facility{
			Name:           s.Name,
			Location:       s.Location,
			Region:         s.Region,
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			FacilityType:   entities.FacilityType(s.FacilityType),
			Contact:        s.Contact,
			OperatingHours: s.OperatingHours,
			AcceptedTypes:  s.AcceptedTypes,
			IsActive:       active,
		})
	}
	return facilities, nil
}

func newSeedFacilitiesCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-facilities",
		Short: "Create recycling centers from a YAML file",
		Example: `  regenctl seed-facilities --file facilities.yaml

  # facilities.yaml
  facilities:
    - name: Kasarani Recycling Depot
      location: Thika Road, Kasarani
      region: Nairobi
      latitude: -1.2219
      longitude: 36.8983
      facility_type: recycling
      accepted_types: [Plastic, Paper, Metal]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			facilities, err := loadFacilitySeeds(file)
			if err != nil {
				return err
			}

			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				var failed []string
				for _, facility := range facilities {
					if err := b.Facilities.Create(cmd.Context(), facility); err != nil {
						log.Error().Err(err).Str("name", facility.Name).Msg("failed to seed facility")
						failed = append(failed, fmt.Sprintf("%s: %v", facility.Name, err))
						continue
					}
					cmd.Printf("Created %s (%s)\n", facility.Name, facility.ID)
				}
				if len(failed) > 0 {
					return fmt.Errorf("%d of %d facilities failed:\n  %s", len(failed), len(facilities), strings.Join(failed, "\n  "))
				}
				cmd.Printf("Seeded %d facilities\n", len(facilities))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file listing facilities")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute profile totals from the entry log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				if userID != "" {
					result, err := b.Reconciler.ReconcileUser(cmd.Context(), userID)
					if err != nil {
						return err
					}
					if !result.Drifted {
						cmd.Printf("%s: totals match %d entries\n", userID, result.Entries)
						return nil
					}
					cmd.Printf("%s: rewrote totals from %d entries (points %d -> %d, CO2 %.2f -> %.2f kg)\n",
						userID, result.Entries,
						result.Before.Points, result.After.Points,
						result.Before.TotalCO2SavedKg, result.After.TotalCO2SavedKg)
					return nil
				}

				summary, err := b.Reconciler.ReconcileAll(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Reconciled %d users: %d drifted, %d failed\n", summary.Users, summary.Drifted, summary.Failed)
				for _, r := range summary.Results {
					cmd.Printf("  %s: points %d -> %d\n", r.UserID, r.Before.Points, r.After.Points)
				}
				if summary.Failed > 0 {
					return errors.New("some users could not be reconciled")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "reconcile a single user")
	return cmd
}

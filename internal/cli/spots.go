package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iliyamo/parkease/internal/model"
	"github.com/iliyamo/parkease/internal/occupancy"
	"github.com/iliyamo/parkease/internal/repository"
)

// NewSeedCmd creates the seed command
func NewSeedCmd(open opener) *cobra.Command {
	var (
		geometryPath string
		location     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create spots from the geometry table",
		Long: `Creates one available spot per rectangle in the geometry file.  Rectangles
are sorted left to right and split into columns A, B and C.  Existing
labels are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			geoms, err := occupancy.LoadGeometry(geometryPath)
			if err != nil {
				return err
			}
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			labeled := occupancy.ColumnLabels(geoms)
			seeds := make([]repository.SpotSeed, 0, len(labeled))
			for _, lg := range labeled {
				seeds = append(seeds, repository.SpotSeed{
					Label: lg.Label, X: lg.X, Y: lg.Y, Width: lg.Width, Height: lg.Height, Location: location,
				})
			}
			n, err := repository.NewSpotRepo(db).CreateSpots(cmd.Context(), seeds)
			if err != nil {
				return fmt.Errorf("failed to seed spots: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d of %d spots\n", n, len(seeds))
			return nil
		},
	}

	cmd.Flags().StringVarP(&geometryPath, "geometry", "g", "spots.yaml", "Geometry YAML file")
	cmd.Flags().StringVar(&location, "location", "Main Parking", "Location name stored on new spots")

	return cmd
}

// NewShowCmd creates the show command
func NewShowCmd(open opener) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List spots and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			repo := repository.NewSpotRepo(db)
			var spots []model.Spot
			if availableOnly {
				spots, err = repo.ListAvailable(cmd.Context())
			} else {
				spots, err = repo.ListSpots(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to list spots: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(spots) == 0 {
				fmt.Fprintln(out, "No spots found; run parkctl seed first")
				return nil
			}

			fmt.Fprintf(out, "%-6s %-10s %-16s %s\n", "SPOT", "STATUS", "LOCATION", "UPDATED")
			for _, s := range spots {
				fmt.Fprintf(out, "%-6s %s %-16s %s\n", s.Label, paintStatus(s.Status), s.Location,
					s.LastUpdated.Local().Format("2006-01-02 15:04:05"))
			}
			st := model.CountSpots(spots)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Total %d  Available %d  Occupied %d  Reserved %d\n",
				st.Total, st.Available, st.Occupied, st.Reserved)
			return nil
		},
	}

	cmd.Flags().BoolVar(&availableOnly, "available", false, "Only list bookable spots")

	return cmd
}

// paintStatus pads before colouring so escape codes do not break alignment.
func paintStatus(s model.SpotStatus) string {
	text := fmt.Sprintf("%-10s", s)
	switch s {
	case model.StatusAvailable:
		return color.New(color.FgGreen).Sprint(text)
	case model.StatusOccupied:
		return color.New(color.FgRed).Sprint(text)
	case model.StatusReserved:
		return color.New(color.FgYellow).Sprint(text)
	}
	return text
}

// NewSyncCmd creates the sync command
func NewSyncCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [LABEL...]",
		Short: "Set detected status from a list of occupied labels",
		Long: `Marks the listed spots occupied and every other spot available, as a
detection pass would.  Reserved spots keep their status.  Labels may be
space or comma separated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var occupied []string
			for _, a := range args {
				for _, l := range strings.Split(a, ",") {
					if l = strings.TrimSpace(l); l != "" {
						occupied = append(occupied, l)
					}
				}
			}
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.NewSpotRepo(db).SyncDetected(cmd.Context(), occupied)
			if err != nil {
				return fmt.Errorf("failed to sync: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d spots\n", n)
			return nil
		},
	}
	return cmd
}

// NewClearCmd creates the clear command
func NewClearCmd(open opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete bookings and activity, reset spots to available",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			removed, err := repository.NewBookingRepo(db).DeleteAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to delete bookings: %w", err)
			}
			if err := repository.ClearActivity(ctx, db); err != nil {
				return fmt.Errorf("failed to clear activity: %w", err)
			}
			reset, err := repository.NewSpotRepo(db).ResetAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to reset spots: %w", err)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %d bookings, reset %d spots\n", green("Cleared:"), removed, reset)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")

	return cmd
}

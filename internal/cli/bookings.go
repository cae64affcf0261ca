package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/repository"
	"github.com/iliyamo/parkease/internal/service"
)

const arrivalLayout = "2006-01-02 15:04"

// NewBookCmd creates the book command
func NewBookCmd(open opener) *cobra.Command {
	var (
		req     service.BookingRequest
		arrival string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Reserve a spot",
		Long:  `Reserves an available spot.  No broker event is published from the CLI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := config.LoadJobConfig()
			req.ArrivalTime = time.Now().UTC().Add(30 * time.Minute)
			if arrival != "" {
				t, err := time.ParseInLocation(arrivalLayout, arrival, jobs.Location)
				if err != nil {
					return fmt.Errorf("invalid --arrival (want %q): %w", arrivalLayout, err)
				}
				req.ArrivalTime = t.UTC()
			}
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewBookingService(db, service.NopPublisher{}, jobs.GracePeriod)
			b, err := svc.Book(cmd.Context(), req)
			switch {
			case errors.Is(err, repository.ErrConflict):
				return fmt.Errorf("spot %s is not available", req.SpotLabel)
			case errors.Is(err, repository.ErrSpotNotFound):
				return fmt.Errorf("spot %s does not exist", req.SpotLabel)
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s: id %d, reference %s\n", b.SpotLabel, b.ID, b.Reference)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.SpotLabel, "spot", "", "Spot label (required)")
	cmd.Flags().StringVar(&req.UserName, "name", "", "Driver name (required)")
	cmd.Flags().StringVar(&req.UserPhone, "phone", "", "Contact phone (required)")
	cmd.Flags().StringVar(&req.UserEmail, "email", "", "Contact email")
	cmd.Flags().StringVar(&req.CarType, "car", "Sedan", "Vehicle type")
	cmd.Flags().StringVar(&arrival, "arrival", "", "Arrival time "+arrivalLayout+" in APP_TZ (default now+30m)")
	cmd.Flags().IntVar(&req.DurationHours, "duration", 1, "Duration in hours (1-24)")
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

// NewCancelCmd creates the cancel command
func NewCancelCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel BOOKING_ID",
		Short: "Cancel an active booking and release its spot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid booking id %q", args[0])
			}
			db, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := service.NewBookingService(db, service.NopPublisher{}, 0).Cancel(cmd.Context(), id)
			if errors.Is(err, repository.ErrBookingNotFound) {
				return fmt.Errorf("no active booking %d", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled booking %d, %s is available\n", b.ID, b.SpotLabel)
			return nil
		},
	}
	return cmd
}

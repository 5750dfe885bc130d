package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbzk/rbzk"
	"github.com/rbzk/rbzk/internal/cache"
)

func logsCmd() *cobra.Command {
	var (
		today     bool
		yesterday bool
		week      bool
		month     bool
		startDate string
		endDate   string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List attendance log entries, optionally filtered by date range",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			if _, err := client.GetUsers(); err != nil {
				return fmt.Errorf("get users: %w", err)
			}
			records, err := client.GetAttendance()
			if err != nil {
				return fmt.Errorf("get attendance: %w", err)
			}

			from, to, err := resolveDateRange(today, yesterday, week, month, startDate, endDate)
			if err != nil {
				return err
			}
			records = filterByDateRange(records, from, to)
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			out, err := formatAttendance(records, outputFormat)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&today, "today", false, "only today's entries")
	cmd.Flags().BoolVar(&yesterday, "yesterday", false, "only yesterday's entries")
	cmd.Flags().BoolVar(&week, "week", false, "only the last 7 days")
	cmd.Flags().BoolVar(&month, "month", false, "only the last 30 days")
	cmd.Flags().StringVar(&startDate, "start-date", "", "only entries on/after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "only entries on/before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the most recent N entries (0 = no limit)")
	return cmd
}

func resolveDateRange(today, yesterday, week, month bool, startDate, endDate string) (from, to time.Time, err error) {
	now := time.Now()
	switch {
	case today:
		from = truncateDay(now)
		to = from.Add(24 * time.Hour)
	case yesterday:
		from = truncateDay(now).Add(-24 * time.Hour)
		to = from.Add(24 * time.Hour)
	case week:
		from = truncateDay(now).Add(-7 * 24 * time.Hour)
	case month:
		from = truncateDay(now).Add(-30 * 24 * time.Hour)
	}
	if startDate != "" {
		from, err = time.ParseInLocation("2006-01-02", startDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --start-date: %w", err)
		}
	}
	if endDate != "" {
		to, err = time.ParseInLocation("2006-01-02", endDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --end-date: %w", err)
		}
		to = to.Add(24 * time.Hour)
	}
	return from, to, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func filterByDateRange(records []rbzk.Attendance, from, to time.Time) []rbzk.Attendance {
	if from.IsZero() && to.IsZero() {
		return records
	}
	out := make([]rbzk.Attendance, 0, len(records))
	for _, r := range records {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !r.Timestamp.Before(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func logsAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs-all",
		Short: "List every attendance log entry, caching the snapshot on disk",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()

			serial, err := client.SerialNumber()
			if err != nil {
				return fmt.Errorf("serial number: %w", err)
			}

			if _, err := client.GetUsers(); err != nil {
				return fmt.Errorf("get users: %w", err)
			}
			records, err := client.GetAttendance()
			if err != nil {
				return fmt.Errorf("get attendance: %w", err)
			}

			raw, err := json.Marshal(records)
			if err != nil {
				return fmt.Errorf("marshal attendance snapshot: %w", err)
			}
			if err := cache.Save(cache.Entry{SerialNumber: serial, FetchedAt: time.Now(), Records: raw}); err != nil {
				logger.Warn("rbzk: failed to cache attendance snapshot", "error", err)
			}

			out, err := formatAttendance(records, outputFormat)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func clearLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-logs",
		Short: "Erase every attendance log entry on the device (destructive)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			client, disconnect, err := connect(context.Background())
			if err != nil {
				return err
			}
			defer disconnect()
			return client.ClearAttendance()
		},
	}
}

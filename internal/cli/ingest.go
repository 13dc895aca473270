package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"squad-ladder/internal/service"

	"github.com/spf13/cobra"
)

func newIngestCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <report.json>...",
		Short: "Ingest match reports from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					failed++
					continue
				}
				res, err := s.ingest.IngestMatch(cmd.Context(), raw)
				if err != nil {
					fmt.Fprintf(out, "%s: failed: %v\n", path, err)
					failed++
					continue
				}
				if res.Duplicate {
					fmt.Fprintf(out, "%s: session %s already ingested\n", path, res.SessionID)
					continue
				}
				fmt.Fprintf(out, "%s: session %s ingested, %d player(s), %d skipped, winner %q\n",
					path, res.SessionID, res.Participants, res.Skipped, res.Winner)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d report(s) failed", failed, len(args))
			}
			return nil
		},
	}
}

func newKillCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <events.json>",
		Short: "Buffer kill events from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read events: %w", err)
			}
			var events []service.KillEventInput
			if err := json.Unmarshal(raw, &events); err != nil {
				return fmt.Errorf("decode events: %w", err)
			}

			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			for i, ev := range events {
				if _, err := s.ingest.IngestKill(cmd.Context(), ev); err != nil {
					return fmt.Errorf("event %d: %w", i, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "buffered %d kill event(s)\n", len(events))
			return nil
		},
	}
}

func newReplayCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Re-ingest every archived report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := s.ladder.Replay(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d report(s): %d ingested, %d duplicate, %d failed\n",
				sum.Total, sum.Ingested, sum.Duplicates, sum.Failed)
			return nil
		},
	}
}

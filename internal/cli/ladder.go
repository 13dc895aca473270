package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/service"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newSeasonCommand(o *options) *cobra.Command {
	season := &cobra.Command{
		Use:   "season",
		Short: "Manage seasons",
	}

	var name, start, end string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a season covering [start, end)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(dateLayout, start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			to, err := time.Parse(dateLayout, end)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := s.ladder.CreateSeason(cmd.Context(), name, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created season %d %q\n", created.ID, created.Name)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "season name")
	create.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	create.Flags().StringVar(&end, "end", "", "day after the last, YYYY-MM-DD")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("start")
	_ = create.MarkFlagRequired("end")

	list := &cobra.Command{
		Use:   "list",
		Short: "List seasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			seasons, err := s.ladder.ListSeasons(cmd.Context())
			if err != nil {
				return err
			}
			if len(seasons) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No seasons yet. Run 'ladderctl season create' to add one.")
				return nil
			}
			printSeasons(cmd.OutOrStdout(), seasons)
			return nil
		},
	}

	season.AddCommand(create, list)
	return season
}

func newSquadCommand(o *options) *cobra.Command {
	squad := &cobra.Command{
		Use:   "squad",
		Short: "Manage squads",
	}

	var name, tag string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a squad",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := s.ladder.CreateSquad(cmd.Context(), name, tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created squad %d %q\n", created.ID, created.Name)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "squad name")
	create.Flags().StringVar(&tag, "tag", "", "short tag")
	_ = create.MarkFlagRequired("name")

	squad.AddCommand(create)
	return squad
}

func newLinkCommand(o *options) *cobra.Command {
	var accountID, squadID int64
	cmd := &cobra.Command{
		Use:   "link <identity>",
		Short: "Bind a player identity to an account and squad",
		Long:  "Bind a player identity to an account. --squad 0 removes the account from its squad.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ladder.Link(cmd.Context(), accountID, args[0], squadID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "linked %s to account %d, squad %d\n", args[0], accountID, squadID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id")
	cmd.Flags().Int64Var(&squadID, "squad", 0, "squad id, 0 for none")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newStandingsCommand(o *options) *cobra.Command {
	var seasonID int64
	var limit int
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Show the season leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer s.Close()

			season, rows, err := s.ladder.Standings(cmd.Context(), seasonID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s to %s)\n", season.Name,
				season.StartDate.Format(dateLayout), season.EndDate.Format(dateLayout))
			if len(rows) == 0 {
				fmt.Fprintln(out, "No rated matches yet.")
				return nil
			}
			printStandings(out, rows)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seasonID, "season", 0, "season id, default the current season")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to show")
	return cmd
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func printSeasons(w io.Writer, seasons []domain.Season) {
	table := newTable(w)
	table.Header("ID", "NAME", "START", "END")
	for _, s := range seasons {
		table.Append(
			strconv.FormatInt(s.ID, 10),
			s.Name,
			s.StartDate.Format(dateLayout),
			s.EndDate.Format(dateLayout),
		)
	}
	table.Render()
}

func printStandings(w io.Writer, rows []service.Standing) {
	table := newTable(w)
	table.Header("#", "PLAYER", "NAME", "RATING", "MAX", "M", "W", "L", "K", "D", "TK", "K/D")
	for i, r := range rows {
		kd := float64(r.Kills)
		if r.Deaths > 0 {
			kd = float64(r.Kills) / float64(r.Deaths)
		}
		table.Append(
			strconv.Itoa(i+1),
			r.PlayerIdentity,
			r.Name,
			strconv.Itoa(r.Rating),
			strconv.Itoa(r.MaxRating),
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Teamkills),
			fmt.Sprintf("%.2f", kd),
		)
	}
	table.Render()
}

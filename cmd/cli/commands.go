package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(addPlayerCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(deleteMatchCmd)
	rootCmd.AddCommand(editMatchCmd)
	rootCmd.AddCommand(recalculateCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(seasonCmd)
	rootCmd.AddCommand(expireCmd)

	leaderboardCmd.Flags().String("mode", "singles", "singles or doubles")

	recordCmd.Flags().String("mode", "singles", "singles or doubles")
	recordCmd.Flags().StringSlice("winners", nil, "Winning player ids")
	recordCmd.Flags().StringSlice("losers", nil, "Losing player ids")
	recordCmd.Flags().String("score", "", "Score as winner-loser, e.g. 11-7")
	recordCmd.Flags().String("by", "", "Player id of the submitter")
	recordCmd.Flags().Bool("friendly", false, "Record as a friendly match")
	recordCmd.Flags().Bool("direct", false, "Commit without confirmation")

	editMatchCmd.Flags().StringSlice("winners", nil, "Winning player ids")
	editMatchCmd.Flags().StringSlice("losers", nil, "Losing player ids")
	editMatchCmd.Flags().String("score", "", "Score as winner-loser, e.g. 11-7")

	pendingCmd.AddCommand(pendingListCmd, pendingConfirmCmd, pendingDisputeCmd, pendingForceCmd, pendingRejectCmd)
	pendingListCmd.Flags().String("status", "", "Only list pending matches in this state")

	seasonCmd.AddCommand(seasonStartCmd, seasonEndCmd, seasonListCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the players of the league",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, leaguePath("/players"), nil)
	},
}

var addPlayerCmd = &cobra.Command{
	Use:   "add-player <id> <name>",
	Short: "Register a player in the league",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"id": args[0], "name": strings.Join(args[1:], " ")}
		return performRequest(http.MethodPost, leaguePath("/players"), body)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the ladder for one mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		return performRequest(http.MethodGet, leaguePath("/leaderboard?mode="+mode), nil)
	},
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Report a match result",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		mode, _ := flags.GetString("mode")
		winners, _ := flags.GetStringSlice("winners")
		losers, _ := flags.GetStringSlice("losers")
		score, _ := flags.GetString("score")
		by, _ := flags.GetString("by")
		friendly, _ := flags.GetBool("friendly")
		direct, _ := flags.GetBool("direct")

		w, l, err := parseScore(score)
		if err != nil {
			return err
		}
		body := map[string]any{
			"mode":         mode,
			"winners":      winners,
			"losers":       losers,
			"score_winner": w,
			"score_loser":  l,
			"is_friendly":  friendly,
			"logged_by":    by,
			"direct":       direct,
		}
		return performRequest(http.MethodPost, leaguePath("/matches"), body)
	},
}

var deleteMatchCmd = &cobra.Command{
	Use:   "delete-match <id>",
	Short: "Delete a committed match and replay the league",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/api/matches/"+args[0], nil)
	},
}

var editMatchCmd = &cobra.Command{
	Use:   "edit-match <id>",
	Short: "Correct the teams or score of a committed match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		winners, _ := flags.GetStringSlice("winners")
		losers, _ := flags.GetStringSlice("losers")
		score, _ := flags.GetString("score")
		w, l, err := parseScore(score)
		if err != nil {
			return err
		}
		body := map[string]any{"winners": winners, "losers": losers, "score_winner": w, "score_loser": l}
		return performRequest(http.MethodPut, "/api/matches/"+args[0], body)
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Rebuild every rating of the league from its matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, leaguePath("/recalculate"), nil)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Work with results awaiting confirmation",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		path := leaguePath("/pending")
		if status != "" {
			path += "?status=" + status
		}
		return performRequest(http.MethodGet, path, nil)
	},
}

var pendingConfirmCmd = &cobra.Command{
	Use:   "confirm <id> <player>",
	Short: "Confirm a pending match as one of its players",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/pending/"+args[0]+"/confirm", map[string]any{"player_id": args[1]})
	},
}

var pendingDisputeCmd = &cobra.Command{
	Use:   "dispute <id> <player>",
	Short: "Dispute a pending match as one of its players",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/pending/"+args[0]+"/dispute", map[string]any{"player_id": args[1]})
	},
}

var pendingForceCmd = &cobra.Command{
	Use:   "force-confirm <id>",
	Short: "Commit a pending or disputed match as an admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/pending/"+args[0]+"/force-confirm", nil)
	},
}

var pendingRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Discard a pending or disputed match as an admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/pending/"+args[0]+"/reject", nil)
	},
}

var seasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Start, end and list seasons",
}

var seasonStartCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a new season and reset all ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, leaguePath("/seasons"), map[string]any{"name": strings.Join(args, " ")})
	},
}

var seasonEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active season and archive its standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, leaguePath("/seasons/end"), nil)
	},
}

var seasonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the seasons of the league",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, leaguePath("/seasons"), nil)
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Auto-confirm every pending match past its deadline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/scheduled/expire-pending", nil)
	},
}

func leaguePath(suffix string) string {
	return "/api/leagues/" + leagueID + suffix
}

func parseScore(score string) (int, int, error) {
	parts := strings.Split(score, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("score must look like 11-7, got %q", score)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid winner score: %w", err)
	}
	l, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid loser score: %w", err)
	}
	return w, l, nil
}

func performRequest(method, endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s %s\n", method, url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}

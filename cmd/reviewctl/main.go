package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/content-review-api/internal/models"
	"github.com/noah-isme/content-review-api/internal/service"
	"github.com/noah-isme/content-review-api/pkg/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "reviewctl",
	Short:        "Inspect content review data dumps offline",
	SilenceUsage: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <submissions.json>",
	Short: "Group a raw submission dump into versioned assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), tree)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ASSIGNMENT\tTITLE\tVERSIONS\tLATEST\tCOMMENTS")
		for _, sub := range tree {
			latest := sub.LatestVersion()
			comments := 0
			for _, v := range sub.Versions {
				comments += len(v.Comments)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", sub.AssignmentID, sub.Title, sub.TotalVersions,
				latest.CreatedAt.Format(time.RFC3339), comments)
		}
		return w.Flush()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <submissions.json> <events.json>",
	Short: "Resolve display statuses against a publish-event dump",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		events, err := loadEvents(args[1])
		if err != nil {
			return err
		}
		views := service.ResolveAll(tree, events)
		filter := models.SubmissionFilter{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			filter.Status = models.DisplayStatus(status)
		}
		views = service.FilterSubmissions(views, filter)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ASSIGNMENT\tSTATUS\tPLATFORM")
		for _, view := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\n", view.AssignmentID, view.DisplayStatus, view.Platform)
		}
		return w.Flush()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a session token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		sessions := service.NewSessionService(service.SessionConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
		token, err := sessions.IssueToken(models.Session{UserID: args[0], Role: models.SessionRole(role), DisplayName: name}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func loadTree(path string) ([]*models.ContentSubmission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading submissions: %w", err)
	}
	tree, err := service.Aggregate(raw)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", path, err)
	}
	return tree, nil
}

func loadEvents(path string) ([]models.PublishEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	var events []models.PublishEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return events, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().Bool("json", false, "Print the full tree as JSON")
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("status", "s", "", "Only show submissions with this display status")
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("role", string(models.RoleCustomer), "Session role")
	tokenCmd.Flags().String("name", "", "Display name")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}

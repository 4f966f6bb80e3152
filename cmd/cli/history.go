package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-org-audit/internal/config"
	"github.com/kurihiro0119/github-org-audit/internal/domain"
	"github.com/kurihiro0119/github-org-audit/pkg/client"
)

const timeLayout = "2006-01-02 15:04:05"

// historySource is the read side of the audit history, served either by the
// local store or by the history API
type historySource interface {
	GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error)
	GetRun(ctx context.Context, id string) (*domain.AuditRun, error)
	GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error)
}

type remoteHistory struct {
	client *client.Client
}

func (r *remoteHistory) GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error) {
	return r.client.GetRuns(org, limit)
}

func (r *remoteHistory) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	return r.client.GetRun(id)
}

func (r *remoteHistory) GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error) {
	return r.client.GetFindings(runID)
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	var remote bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded audit runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.historySource(remote)
			if err != nil {
				return err
			}

			runs, err := source.GetRuns(cmd.Context(), a.cfg.Org, limit)
			if err != nil {
				return fmt.Errorf("failed to get runs: %w", err)
			}
			printRuns(cmd.OutOrStdout(), a.cfg.Org, runs)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the findings of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.historySource(remote)
			if err != nil {
				return err
			}

			run, err := source.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			findings, err := source.GetFindings(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("failed to get findings: %w", err)
			}
			printFindings(cmd.OutOrStdout(), run, findings)
			return nil
		},
	}

	historyCmd.PersistentFlags().BoolVar(&remote, "remote", false, "read history from the API server at API_ENDPOINT")
	historyCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	historyCmd.AddCommand(showCmd)
	return historyCmd
}

func (a *app) historySource(remote bool) (historySource, error) {
	if remote {
		return &remoteHistory{client: client.NewClient(a.cfg.APIEndpoint)}, nil
	}

	if err := a.cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	if !a.cfg.RecordingEnabled() {
		return nil, &config.ConfigError{Field: "STORAGE_TYPE", Message: "history requires 'sqlite' or 'postgres'"}
	}
	return a.openStorage()
}

func printRuns(w io.Writer, org string, runs []*domain.AuditRun) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No recorded runs for %s\n", org)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Command", "Status", "Started", "Duration", "Error"})
	for _, run := range runs {
		table.Append([]string{
			run.ID,
			run.Command,
			string(run.Status),
			run.StartedAt.Local().Format(timeLayout),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			run.Error,
		})
	}
	table.Render()
}

func printFindings(w io.Writer, run *domain.AuditRun, findings []*domain.Finding) {
	fmt.Fprintf(w, "Run %s: %s on %s (%s, %s)\n\n",
		run.ID, run.Command, run.Org, run.Status, run.StartedAt.Local().Format(timeLayout))
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "Subject", "Detail"})
	for _, f := range findings {
		table.Append([]string{string(f.Check), f.Subject, f.Detail})
	}
	table.Render()
}

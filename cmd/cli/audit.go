package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/audit"
	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

func (a *app) newTwoFactorAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "twofactorauth",
		Short: "View members who do not have 2FA activated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := a.newAuditor(cmd)
			if err != nil {
				return err
			}

			started := time.Now()
			fmt.Fprint(cmd.OutOrStdout(), "========= 2FA check ======= \n\n")

			report := &audit.Report{}
			report.TwoFactorDisabled, err = auditor.TwoFactorAuth(cmd.Context())
			return a.record(cmd.Context(), cmd.Name(), started, report, err)
		},
	}
}

func (a *app) newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "View members without 2FA, teams without maintainers and repos without admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := a.newAuditor(cmd)
			if err != nil {
				return err
			}

			started := time.Now()
			out := cmd.OutOrStdout()
			fmt.Fprint(out, "========= Github Audit ======= \n\n")

			report, err := runAudit(cmd.Context(), auditor)
			if err == nil {
				fmt.Fprint(out, "============================== \n\n")
			}
			return a.record(cmd.Context(), cmd.Name(), started, report, err)
		},
	}
}

// runAudit runs the three governance checks in order, stopping at the first
// check that fails
func runAudit(ctx context.Context, auditor *audit.Auditor) (*audit.Report, error) {
	report := &audit.Report{}
	var err error

	if report.TwoFactorDisabled, err = auditor.TwoFactorAuth(ctx); err != nil {
		return report, err
	}
	if report.TeamsWithoutMaintainer, err = auditor.TeamMaintainers(ctx); err != nil {
		return report, err
	}
	report.ReposWithoutAdmin, err = auditor.RepoAdmins(ctx)
	return report, err
}

// record stores the run and its findings when recording is enabled. The
// command error takes precedence over a recording failure.
func (a *app) record(ctx context.Context, command string, started time.Time, report *audit.Report, runErr error) error {
	store, err := a.openStorage()
	if err != nil || store == nil {
		if runErr != nil {
			return runErr
		}
		return err
	}

	finished := time.Now()
	run := &domain.AuditRun{
		ID:         uuid.NewString(),
		Org:        a.cfg.Org,
		Command:    command,
		Status:     domain.RunStatusCompleted,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
	}

	// Recording must still happen when the command context was cancelled.
	saveCtx := context.WithoutCancel(ctx)
	if err := store.SaveRun(saveCtx, run); err != nil {
		a.logger.Error("failed to record run", zap.String("run_id", run.ID), zap.Error(err))
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("failed to record run: %w", err)
	}
	if err := store.SaveFindings(saveCtx, report.Findings(run.ID, finished)); err != nil {
		a.logger.Error("failed to record findings", zap.String("run_id", run.ID), zap.Error(err))
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("failed to record findings: %w", err)
	}

	a.logger.Info("recorded audit run",
		zap.String("run_id", run.ID),
		zap.String("command", command),
		zap.String("status", string(run.Status)),
	)
	return runErr
}

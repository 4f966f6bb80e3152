package audit

import (
	"time"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

// Report collects the results of the checks run by one command. Nil slices
// mean the check was not run.
type Report struct {
	TwoFactorDisabled      []*domain.Member
	TeamsWithoutMaintainer []*domain.Team
	ReposWithoutAdmin      []RepoFinding
}

// Findings converts the report into findings attached to runID
func (r *Report) Findings(runID string, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	add := func(check domain.CheckType, subject, detail string) {
		findings = append(findings, &domain.Finding{
			RunID:     runID,
			Check:     check,
			Subject:   subject,
			Detail:    detail,
			CreatedAt: now,
		})
	}

	for _, member := range r.TwoFactorDisabled {
		add(domain.CheckTwoFactorDisabled, member.Login, member.Name)
	}
	for _, team := range r.TeamsWithoutMaintainer {
		add(domain.CheckTeamWithoutMaintainer, team.Name, "")
	}
	for _, repo := range r.ReposWithoutAdmin {
		detail := ""
		if repo.Err != nil {
			detail = repo.Err.Error()
		}
		add(domain.CheckRepoWithoutAdmin, repo.Repo, detail)
	}
	return findings
}

package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
)

var (
	goodColor = color.New(color.FgGreen)
	badColor  = color.New(color.FgRed)
)

// RepoFinding is a repository without a non-owner admin. Err is set when the
// collaborators could not be fetched.
type RepoFinding struct {
	Repo string
	Err  error
}

// TwoFactorAuth lists non-bot members that have two-factor auth disabled.
// Output is written only after every profile lookup succeeded; any failure
// aborts the check.
func (a *Auditor) TwoFactorAuth(ctx context.Context) ([]*domain.Member, error) {
	members, err := a.collector.ListTwoFactorDisabledMembers(ctx, a.org)
	if err != nil {
		return nil, err
	}

	var flagged []*domain.Member
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.bots.Contains(member.Login) {
			continue
		}
		user, err := a.collector.GetUser(ctx, member.Login)
		if err != nil {
			return nil, err
		}
		flagged = append(flagged, &domain.Member{Login: member.Login, Name: sanitize(user.Name)})
	}

	badColor.Fprintln(a.out, "The following people don't have 2FA turned on!")
	for _, member := range flagged {
		fmt.Fprintf(a.out, " - %s -> %s\n", member.Login, member.Name)
	}
	fmt.Fprint(a.out, "\n\n")

	return flagged, nil
}

// TeamMaintainers reports every team without a maintainer. Teams are
// printed as they are found, followed by a summary line.
func (a *Auditor) TeamMaintainers(ctx context.Context) ([]*domain.Team, error) {
	teams, err := a.collector.ListTeams(ctx, a.org)
	if err != nil {
		return nil, err
	}

	var flagged []*domain.Team
	for _, team := range teams {
		maintainers, err := a.collector.ListTeamMaintainers(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		if len(maintainers) == 0 {
			flagged = append(flagged, team)
			fmt.Fprintf(a.out, "%s Doesn't have any team maintainers\n", team.Name)
		}
	}

	if len(flagged) == 0 {
		goodColor.Fprintln(a.out, "All Teams have maintainers!")
	} else {
		badColor.Fprintln(a.out, "Fix the teams above, by adding a maintainer to them!")
	}
	fmt.Fprintln(a.out)

	return flagged, nil
}

// listRepos fetches exactly RepoPageCount pages of RepoPageSize repositories
func (a *Auditor) listRepos(ctx context.Context) ([]*domain.Repository, error) {
	var repos []*domain.Repository
	for page := 1; page <= RepoPageCount; page++ {
		pageRepos, err := a.collector.ListReposPage(ctx, a.org, page, RepoPageSize)
		if err != nil {
			return nil, err
		}
		repos = append(repos, pageRepos...)
	}
	return repos, nil
}

type repoAdminResult struct {
	hasAdmin bool
	err      error
}

// RepoAdmins reports repositories where no collaborator other than an org
// owner holds admin permission. A repository whose collaborators cannot be
// fetched is reported with the error and counted as lacking an admin.
func (a *Auditor) RepoAdmins(ctx context.Context) ([]RepoFinding, error) {
	owners, err := a.collector.ListOwners(ctx, a.org)
	if err != nil {
		return nil, err
	}
	ownerSet := sets.NewString()
	for _, owner := range owners {
		ownerSet.Insert(strings.ToLower(owner))
	}

	repos, err := a.listRepos(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("checking repository admins", zap.Int("repos", len(repos)), zap.Int("owners", ownerSet.Len()))

	results := make([]repoAdminResult, len(repos))
	var wg sync.WaitGroup

	// Limit concurrent goroutines
	semaphore := make(chan struct{}, a.concurrency)

	for i, repo := range repos {
		wg.Add(1)
		go func(index int, name string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}
			hasAdmin, err := a.hasNonOwnerAdmin(ctx, name, ownerSet)
			results[index] = repoAdminResult{hasAdmin: hasAdmin, err: err}
		}(i, repo.Name)
	}
	wg.Wait()

	// An interrupted check aborts instead of flagging the unchecked repos.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var findings []RepoFinding
	for i, repo := range repos {
		result := results[i]
		if result.err != nil {
			if errors.Is(result.err, context.Canceled) || errors.Is(result.err, context.DeadlineExceeded) {
				return nil, result.err
			}
			fmt.Fprintln(a.out, result.err)
			a.logLookupFailure(repo.Name, result.err)
			findings = append(findings, RepoFinding{Repo: repo.Name, Err: result.err})
			continue
		}
		if !result.hasAdmin {
			findings = append(findings, RepoFinding{Repo: repo.Name})
		}
	}

	if len(findings) == 0 {
		goodColor.Fprintln(a.out, "No Repo errors, all repos look good.")
		return nil, nil
	}

	names := make([]string, 0, len(findings))
	for _, finding := range findings {
		names = append(names, finding.Repo)
	}
	badColor.Fprintln(a.out, "The following repos don't have an admin, add one to fix.")
	fmt.Fprintln(a.out, strings.Join(names, "  \n"))

	return findings, nil
}

func (a *Auditor) hasNonOwnerAdmin(ctx context.Context, repo string, owners sets.String) (bool, error) {
	collaborators, err := a.collector.ListCollaborators(ctx, a.org, repo)
	if err != nil {
		return false, err
	}
	for _, collab := range collaborators {
		// Owners are admins everywhere and do not count here.
		if owners.Has(strings.ToLower(collab.Login)) {
			continue
		}
		if collab.Permissions.Admin {
			return true, nil
		}
	}
	return false, nil
}

// logLookupFailure logs a failed collaborator lookup by cause
func (a *Auditor) logLookupFailure(repo string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		a.logger.Info("repository not found", zap.String("repo", repo))
	case apperrors.IsRateLimited(err):
		a.logger.Warn("rate limited while fetching collaborators", zap.String("repo", repo), zap.Error(err))
	default:
		if httpErr, ok := apperrors.IsHTTPError(err); ok {
			a.logger.Warn("collaborator lookup failed", zap.String("repo", repo), zap.Int("status", httpErr.StatusCode))
			return
		}
		a.logger.Warn("collaborator lookup failed", zap.String("repo", repo), zap.Error(err))
	}
}

package collector

import (
	"context"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

// Collector defines the interface for reading organization data from GitHub
type Collector interface {
	// ListTwoFactorDisabledMembers returns members without 2FA (single page of 200)
	ListTwoFactorDisabledMembers(ctx context.Context, org string) ([]*domain.Member, error)

	// ListOwners returns the logins of the organization owners
	ListOwners(ctx context.Context, org string) ([]string, error)

	// ListMembersPage returns one page of organization members
	ListMembersPage(ctx context.Context, org string, page, perPage int) ([]*domain.Member, error)

	// GetUser returns the full profile of a user
	GetUser(ctx context.Context, login string) (*domain.Member, error)

	// ListTeams returns all teams of the organization
	ListTeams(ctx context.Context, org string) ([]*domain.Team, error)

	// ListTeamMaintainers returns the maintainers of a team
	ListTeamMaintainers(ctx context.Context, teamID int64) ([]*domain.Member, error)

	// ListReposPage returns one page of organization repositories
	ListReposPage(ctx context.Context, org string, page, perPage int) ([]*domain.Repository, error)

	// ListCollaborators returns the collaborators of a repository with their permissions
	ListCollaborators(ctx context.Context, org, repo string) ([]*domain.Collaborator, error)
}

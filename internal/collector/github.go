package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-org-audit/internal/config"
	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
)

const (
	twoFactorPageSize     = 200
	collaboratorsPageSize = 100
	listAllPageSize       = 100
)

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
	logger      *zap.Logger
}

// NewGitHubCollector creates a new GitHub collector from the loaded configuration
func NewGitHubCollector(cfg *config.Config, logger *zap.Logger) (Collector, error) {
	if cfg.GitHubToken == "" {
		return nil, &config.ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHubToken},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if cfg.APIBaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, &config.ConfigError{Field: "GITHUB_API_URL", Message: err.Error()}
		}
		client.BaseURL = baseURL
	}

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(cfg.RequestDelay, logger),
		logger:      logger,
	}, nil
}

// ListTwoFactorDisabledMembers retrieves members with 2FA disabled
func (c *githubCollector) ListTwoFactorDisabledMembers(ctx context.Context, org string) ([]*domain.Member, error) {
	query := url.Values{}
	query.Set("filter", "2fa_disabled")
	query.Set("per_page", strconv.Itoa(twoFactorPageSize))

	var users []*github.User
	if _, err := c.get(ctx, orgPath(org, "members", query), &users); err != nil {
		return nil, fmt.Errorf("failed to list members without 2FA for %s: %w", org, err)
	}
	return toMembers(users), nil
}

// ListOwners retrieves the logins of all organization owners
func (c *githubCollector) ListOwners(ctx context.Context, org string) ([]string, error) {
	var owners []string
	page := 1
	for {
		query := url.Values{}
		query.Set("role", "admin")
		query.Set("per_page", strconv.Itoa(listAllPageSize))
		query.Set("page", strconv.Itoa(page))

		var users []*github.User
		resp, err := c.get(ctx, orgPath(org, "members", query), &users)
		if err != nil {
			return nil, fmt.Errorf("failed to list owners for %s: %w", org, err)
		}
		for _, user := range users {
			owners = append(owners, user.GetLogin())
		}

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return owners, nil
}

// ListMembersPage retrieves a single page of organization members
func (c *githubCollector) ListMembersPage(ctx context.Context, org string, page, perPage int) ([]*domain.Member, error) {
	query := url.Values{}
	query.Set("role", "all")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var users []*github.User
	if _, err := c.get(ctx, orgPath(org, "members", query), &users); err != nil {
		return nil, fmt.Errorf("failed to list members page %d for %s: %w", page, org, err)
	}
	return toMembers(users), nil
}

// GetUser retrieves the profile of a user
func (c *githubCollector) GetUser(ctx context.Context, login string) (*domain.Member, error) {
	var user github.User
	if _, err := c.get(ctx, "users/"+url.PathEscape(login), &user); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", login, err)
	}

	return &domain.Member{
		Login: login,
		Name:  user.GetName(),
		Email: user.GetEmail(),
	}, nil
}

// ListTeams retrieves all teams of the organization
func (c *githubCollector) ListTeams(ctx context.Context, org string) ([]*domain.Team, error) {
	var allTeams []*domain.Team
	page := 1
	for {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(listAllPageSize))
		query.Set("page", strconv.Itoa(page))

		var teams []*github.Team
		resp, err := c.get(ctx, orgPath(org, "teams", query), &teams)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams for %s: %w", org, err)
		}
		for _, team := range teams {
			allTeams = append(allTeams, &domain.Team{
				ID:   team.GetID(),
				Name: team.GetName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return allTeams, nil
}

// ListTeamMaintainers retrieves the maintainers of a team
func (c *githubCollector) ListTeamMaintainers(ctx context.Context, teamID int64) ([]*domain.Member, error) {
	path := fmt.Sprintf("teams/%d/members?role=maintainer", teamID)

	var users []*github.User
	if _, err := c.get(ctx, path, &users); err != nil {
		return nil, fmt.Errorf("failed to list maintainers of team %d: %w", teamID, err)
	}
	return toMembers(users), nil
}

// ListReposPage retrieves a single page of organization repositories
func (c *githubCollector) ListReposPage(ctx context.Context, org string, page, perPage int) ([]*domain.Repository, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))

	var repos []*github.Repository
	if _, err := c.get(ctx, orgPath(org, "repos", query), &repos); err != nil {
		return nil, fmt.Errorf("failed to list repositories page %d for %s: %w", page, org, err)
	}

	result := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, &domain.Repository{
			Org:  org,
			Name: repo.GetName(),
		})
	}
	return result, nil
}

// collaboratorPayload decodes the subset of a collaborator entry we use.
// Missing permission keys decode as false.
type collaboratorPayload struct {
	Login       string `json:"login"`
	Permissions struct {
		Admin bool `json:"admin"`
		Push  bool `json:"push"`
		Pull  bool `json:"pull"`
	} `json:"permissions"`
}

// ListCollaborators retrieves the collaborators of a repository (single page of 100)
func (c *githubCollector) ListCollaborators(ctx context.Context, org, repo string) ([]*domain.Collaborator, error) {
	path := fmt.Sprintf("repos/%s/%s/collaborators?per_page=%d", url.PathEscape(org), url.PathEscape(repo), collaboratorsPageSize)

	var payload []collaboratorPayload
	if _, err := c.get(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("failed to list collaborators for %s/%s: %w", org, repo, err)
	}

	collaborators := make([]*domain.Collaborator, 0, len(payload))
	for _, p := range payload {
		collaborators = append(collaborators, &domain.Collaborator{
			Login: p.Login,
			Permissions: domain.Permissions{
				Admin: p.Permissions.Admin,
				Push:  p.Permissions.Push,
				Pull:  p.Permissions.Pull,
			},
		})
	}
	return collaborators, nil
}

// get performs one authenticated GET relative to the API base URL and decodes
// the JSON body into v
func (c *githubCollector) get(ctx context.Context, path string, v interface{}) (*github.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := c.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req, v)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return resp, translateError(req.URL.String(), err)
	}

	remaining, reset, _ := c.rateLimiter.CheckLimit()
	c.logger.Debug("github request",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("next_page", resp.NextPage),
		zap.Int("rate_remaining", remaining),
		zap.Time("rate_reset", reset))
	return resp, nil
}

// translateError maps non-2xx responses to NotFoundError and HTTPError.
// Anything else (transport failures, cancelled contexts, decode errors) is
// returned unchanged.
func translateError(requestURL string, err error) error {
	var httpResp *http.Response
	var message string

	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &errResp):
		httpResp, message = errResp.Response, errResp.Message
	case errors.As(err, &rateErr):
		httpResp, message = rateErr.Response, rateErr.Message
	case errors.As(err, &abuseErr):
		httpResp, message = abuseErr.Response, abuseErr.Message
	default:
		return err
	}

	if httpResp == nil {
		return err
	}
	if httpResp.StatusCode == http.StatusNotFound {
		return &apperrors.NotFoundError{URL: requestURL}
	}
	return &apperrors.HTTPError{
		URL:        requestURL,
		StatusCode: httpResp.StatusCode,
		Body:       responseBody(httpResp, message),
	}
}

// responseBody returns the raw error body when go-github left it readable,
// and the decoded message otherwise
func responseBody(resp *http.Response, message string) string {
	if resp.Body != nil {
		if data, err := io.ReadAll(resp.Body); err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}
	return message
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp == nil || resp.Response == nil || resp.Header.Get("X-RateLimit-Remaining") == "" {
		return
	}
	c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
}

func orgPath(org, resource string, query url.Values) string {
	return fmt.Sprintf("orgs/%s/%s?%s", url.PathEscape(org), resource, query.Encode())
}

func toMembers(users []*github.User) []*domain.Member {
	members := make([]*domain.Member, 0, len(users))
	for _, user := range users {
		members = append(members, &domain.Member{
			Login: user.GetLogin(),
			Name:  user.GetName(),
			Email: user.GetEmail(),
		})
	}
	return members
}

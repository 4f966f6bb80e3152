package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

// MembersCSVHeader is the header row of the member export
var MembersCSVHeader = []string{"Github Handle", "User name", "Email"}

// Owners prints the logins of the organization owners
func (a *Auditor) Owners(ctx context.Context) ([]string, error) {
	owners, err := a.collector.ListOwners(ctx, a.org)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "%s Github Owners\n----------------\n", a.DisplayOrg())
	for _, owner := range owners {
		fmt.Fprintf(a.out, " - %s\n", owner)
	}
	return owners, nil
}

// RepoCollaborators renders the access level of every collaborator of repo.
// Lookup failures are reported as a missing repository and the second
// return value is false.
func (a *Auditor) RepoCollaborators(ctx context.Context, repo string) ([]*domain.Collaborator, bool) {
	collaborators, err := a.collector.ListCollaborators(ctx, a.org, repo)
	if err != nil {
		a.logLookupFailure(repo, err)
		fmt.Fprintf(a.out, "Repo does not exist with %s Github\n", a.DisplayOrg())
		return nil, false
	}

	table := tablewriter.NewWriter(a.out)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"User", "Admin", "Push", "Pull"})
	for _, collab := range collaborators {
		table.Append([]string{
			collab.Login,
			permissionMark(collab.Permissions.Admin),
			permissionMark(collab.Permissions.Push),
			permissionMark(collab.Permissions.Pull),
		})
	}
	table.SetCaption(true, repo)
	table.Render()
	fmt.Fprint(a.out, "\n\n")

	return collaborators, true
}

func permissionMark(granted bool) string {
	if granted {
		return CheckMark
	}
	return ""
}

// ExportMembers writes every non-bot member to w as CSV while printing them.
// Each row is flushed as soon as it is written so an interrupted run keeps
// the rows gathered so far.
func (a *Auditor) ExportMembers(ctx context.Context, w io.Writer) ([]*domain.Member, error) {
	writer := csv.NewWriter(w)
	if err := writeRow(writer, MembersCSVHeader); err != nil {
		return nil, err
	}

	var exported []*domain.Member
	for page := 1; page <= MemberPageLimit; page++ {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		members, err := a.collector.ListMembersPage(ctx, a.org, page, MemberPageSize)
		if err != nil {
			return exported, err
		}

		for _, member := range members {
			if a.bots.Contains(member.Login) {
				continue
			}
			user, err := a.collector.GetUser(ctx, member.Login)
			if err != nil {
				return exported, err
			}

			row := &domain.Member{
				Login: member.Login,
				Name:  sanitize(user.Name),
				Email: sanitize(user.Email),
			}
			fmt.Fprintf(a.out, " - %s, %s, %s\n", row.Login, row.Name, row.Email)
			if err := writeRow(writer, []string{row.Login, row.Name, row.Email}); err != nil {
				return exported, err
			}
			exported = append(exported, row)
		}
	}

	a.logger.Debug("member export finished", zap.Int("members", len(exported)))
	return exported, nil
}

func writeRow(writer *csv.Writer, record []string) error {
	if err := writer.Write(record); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

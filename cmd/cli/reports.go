package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/prompt"
)

// readRepoName asks for the repository when --reponame is omitted
var readRepoName = func() (string, error) {
	return prompt.ReadStringFromUser("reponame", "", prompt.NotEmpty)
}

func (a *app) newOwnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "View owners of the organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := a.newAuditor(cmd)
			if err != nil {
				return err
			}
			_, err = auditor.Owners(cmd.Context())
			return err
		},
	}
}

func (a *app) newMembersCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "members",
		Short: "View all members of the organization and export them to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := a.newAuditor(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.MembersCSV
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s Github members\n----------------------\n\n", auditor.DisplayOrg())

			exported, err := auditor.ExportMembers(cmd.Context(), f)
			if err != nil {
				return err
			}
			a.logger.Info("exported members", zap.Int("count", len(exported)), zap.String("file", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write (default MEMBERS_CSV or Github.csv)")
	return cmd
}

func (a *app) newRepoCollaboratorsCmd() *cobra.Command {
	var repoName string

	cmd := &cobra.Command{
		Use:   "repo-collaborators",
		Short: "View collaborators and their access level for a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := a.newAuditor(cmd)
			if err != nil {
				return err
			}
			if repoName == "" {
				if repoName, err = readRepoName(); err != nil {
					return err
				}
			}

			auditor.RepoCollaborators(cmd.Context(), repoName)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoName, "reponame", "", "Name of the repo to lookup")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/remote/dirstore"
	"github.com/danieljhkim/apivcs/internal/sync"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote projects",
	Long:  `Display the API design projects available on the remote.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		projects, err := a.syncer.Projects(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, projects)
		}
		if len(projects) == 0 {
			PrintEmptyState(out, "No projects found")
			return nil
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{p.ID, p.Name, string(p.Type), p.Description})
		}
		PrintTable(out, []string{"ID", "NAME", "TYPE", "DESCRIPTION"}, rows)
		return nil
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches <project-id>",
	Short: "List the branches of a remote project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		branches, err := a.syncer.Branches(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, branches)
		}
		for _, b := range branches {
			PrintInfo(out, b)
		}
		return nil
	},
}

var (
	createType        string
	createName        string
	createDescription string
	createStrategy    patch.Strategy
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a remote project from the working tree",
	Long: `Create a new project on the remote and bind the working tree to its master
branch. Files already present in the working tree show up as new files and
are uploaded by the next push.

The binding records an organization, taken from --org, APIVCS_ORG_ID or
org_id in the config file.

Examples:
  # Create a RAML project in the current directory
  apivcs create --type raml --name orders-api

  # Create an OAS project elsewhere
  apivcs create --type oas --name payments --description "Payments API" -C ./payments`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectType, err := remote.ParseProjectType(createType)
		if err != nil {
			return err
		}
		root, err := targetDir()
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.cfg.RequireOrg(); err != nil {
			return err
		}

		result, err := a.syncer.Create(cmd.Context(), &sync.CreateRequest{
			Root:        root,
			OrgID:       a.cfg.OrgID,
			Type:        projectType,
			Name:        createName,
			Description: createDescription,
			Strategy:    createStrategy,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result.Binding)
		}
		PrintSuccess(out, fmt.Sprintf("Created project %s", createName))
		PrintLabelValue(out, "Project", result.Binding.ProjectID)
		PrintLabelValue(out, "Branch", result.Binding.Branch)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", "", "Project type: raml, raml-fragment or oas")
	createCmd.Flags().StringVar(&createName, "name", "", "Project name")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Project description")
	addStrategyFlag(createCmd, &createStrategy)
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("name")
}

var cloneBranch string

var cloneCmd = &cobra.Command{
	Use:   "clone <project-id> [directory]",
	Short: "Clone a remote project branch into a working tree",
	Long: `Download one branch of a remote project and bind the working tree to it.

When a directory is given it must not exist yet; otherwise the working tree
is the current directory (or --dir). The binding records an organization,
taken from --org, APIVCS_ORG_ID or org_id in the config file.

Examples:
  # Clone the master branch into ./orders
  apivcs clone 01J9Z3Q4ZP6N2K8V5X7M1C0B4D orders

  # Clone a feature branch into the current directory
  apivcs clone 01J9Z3Q4ZP6N2K8V5X7M1C0B4D --branch develop`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.cfg.RequireOrg(); err != nil {
			return err
		}

		root, err := cloneTarget(args)
		if err != nil {
			return err
		}

		result, err := a.syncer.Clone(cmd.Context(), &sync.CloneRequest{
			Root:      root,
			ProjectID: args[0],
			Branch:    cloneBranch,
			OrgID:     a.cfg.OrgID,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}
		PrintSuccess(out, fmt.Sprintf("Cloned %s (%s) into %s",
			result.Binding.ProjectID, result.Binding.Branch, root))
		PrintInfo(out, PrintCount(result.Files, "file", "files")+" downloaded")
		return nil
	},
}

func init() {
	cloneCmd.Flags().StringVarP(&cloneBranch, "branch", "b", dirstore.DefaultBranch, "Branch to clone")
}

// cloneTarget resolves and prepares the directory a clone writes into.
func cloneTarget(args []string) (string, error) {
	if len(args) < 2 {
		return targetDir()
	}

	root, err := filepath.Abs(args[1])
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("destination %s already exists", root)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", root, err)
	}
	return root, nil
}

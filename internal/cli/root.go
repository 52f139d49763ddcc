package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput   bool
	verbose      bool
	workDir      string
	identityFlag string
	orgFlag      string
	remoteFlag   string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for apivcs.
var rootCmd = &cobra.Command{
	Use:     "apivcs",
	Version: "dev",
	Short:   "Version control client for remote API design projects",
	Long: `apivcs keeps a local directory in sync with one branch of a remote API design
project (RAML, OAS and their fragments).

Local edits are tracked against a snapshot of the branch taken at the last sync.
Remote changes are merged on pull; collisions are settled by a merge strategy
or left as .theirs/.original conflict markers for manual resolution.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc returns a custom help function that colors group titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")

		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-14s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	// Additional Commands section
	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID == "" && !c.Hidden {
			if !hasUngrouped {
				help.WriteString(sectionTitleColor.Sprint("Additional Commands:"))
				help.WriteString("\n")
				hasUngrouped = true
			}
			fmt.Fprintf(&help, "  %-14s %s\n", c.Name(), c.Short)
		}
	}
	if hasUngrouped {
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

func init() {
	rootCmd.SetHelpFunc(customHelpFunc)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVarP(&workDir, "dir", "C", "", "Working tree directory (default: current directory)")
	flags.StringVar(&identityFlag, "identity", "", "Identity used as remote lock owner (default: user@host)")
	flags.StringVar(&orgFlag, "org", "", "Organization recorded in new bindings")
	flags.StringVar(&remoteFlag, "remote", "", "Root directory of the remote store")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "projects",
		Title: "Remote Projects:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sync",
		Title: "Synchronization:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "working-tree",
		Title: "Working Tree:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "conflicts",
		Title: "Conflict Resolution:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the apivcs CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			target, _, err := cmd.Root().Find(args)
			if err != nil || target == nil {
				target = cmd.Root()
			}
			_ = target.Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for apivcs for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "powershell",
		Short:                 "Generate the autocompletion script for powershell",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})
	rootCmd.AddCommand(completionCmd)

	// Remote Projects commands
	listCmd.GroupID = "projects"
	branchesCmd.GroupID = "projects"
	createCmd.GroupID = "projects"
	cloneCmd.GroupID = "projects"
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(branchesCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(cloneCmd)

	// Synchronization commands
	pullCmd.GroupID = "sync"
	pushCmd.GroupID = "sync"
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)

	// Working Tree commands
	statusCmd.GroupID = "working-tree"
	diffCmd.GroupID = "working-tree"
	revertCmd.GroupID = "working-tree"
	revertAllCmd.GroupID = "working-tree"
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(revertAllCmd)

	// Conflict Resolution commands
	resolveCmd.GroupID = "conflicts"
	markResolvedCmd.GroupID = "conflicts"
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(markResolvedCmd)

	addInertStrategyFlag(listCmd, cloneCmd, statusCmd, diffCmd, revertCmd, revertAllCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

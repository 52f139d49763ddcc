package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/config"
	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/hash"
	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/persist"
	"github.com/danieljhkim/apivcs/internal/remote/dirstore"
	"github.com/danieljhkim/apivcs/internal/state"
	"github.com/danieljhkim/apivcs/internal/sync"
)

// app holds the dependencies of one command invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	syncer *sync.Syncer
}

// newApp creates a syncer with real implementations of all dependencies.
func newApp(cmd *cobra.Command) (*app, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := dirstore.Open(cfg.Remote, dirstore.Logger(logger))
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	syncer := sync.New(
		fs,
		store,
		state.NewFileBindingStore(fs),
		persist.NewSnapshotManager(fs, hash.NewSHA256Hasher()),
		cfg.Identity,
		sync.WithLogger(logger),
		sync.WithListener(newProgress(cmd.OutOrStdout())),
	)
	return &app{cfg: cfg, logger: logger, syncer: syncer}, nil
}

// close flushes the logger.
func (a *app) close() {
	_ = a.logger.Sync()
}

// newViper binds the global flags over the config file and environment.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := config.NewViper(config.DefaultPaths())

	flags := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		config.KeyIdentity: "identity",
		config.KeyOrgID:    "org",
		config.KeyRemote:   "remote",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return v, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = cfg.Level(verbose)
	zcfg.DisableStacktrace = !verbose
	return zcfg.Build()
}

// targetDir returns the absolute path of --dir, or the current directory.
func targetDir() (string, error) {
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return cwd, nil
	}
	return filepath.Abs(workDir)
}

// workingTree returns the root of the bound working tree containing the
// target directory. An unbound directory is returned as is.
func workingTree() (string, error) {
	dir, err := targetDir()
	if err != nil {
		return "", err
	}
	layout, err := state.Discover(fsops.NewRealFS(), dir)
	if err != nil {
		if errors.Is(err, state.ErrNoBinding) {
			return dir, nil
		}
		return "", err
	}
	return layout.Root, nil
}

// treePath resolves a path given relative to the target directory into the
// working tree root and the slash separated path below it.
func treePath(arg string) (root, rel string, err error) {
	root, err = workingTree()
	if err != nil {
		return "", "", err
	}
	dir, err := targetDir()
	if err != nil {
		return "", "", err
	}

	abs := arg
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(dir, arg)
	}
	rel, err = filepath.Rel(root, abs)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", arg, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%s is outside the working tree %s", arg, root)
	}
	return root, filepath.ToSlash(rel), nil
}

// addStrategyFlag registers --merge-strategy on cmd, defaulting to KEEP_BOTH.
func addStrategyFlag(cmd *cobra.Command, s *patch.Strategy) {
	*s = patch.DefaultStrategy
	cmd.Flags().Var(s, "merge-strategy", "How to settle collisions with local edits: KEEP_OURS, KEEP_THEIRS or KEEP_BOTH")
}

// inertStrategy backs --merge-strategy on commands that never merge.
var inertStrategy patch.Strategy

// addInertStrategyFlag registers --merge-strategy on commands that accept it
// without using it.
func addInertStrategyFlag(cmds ...*cobra.Command) {
	inertStrategy = patch.DefaultStrategy
	for _, cmd := range cmds {
		cmd.Flags().Var(&inertStrategy, "merge-strategy", "Accepted for consistency with pull and push; this command does not merge")
	}
}

// outputJSON outputs a value as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

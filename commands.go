package main

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openstax/versionbump/pkg/bump"
	"github.com/openstax/versionbump/pkg/logging"
	"github.com/openstax/versionbump/pkg/version"
)

// cli carries the state shared by every command.
type cli struct {
	v          *viper.Viper
	configPath string
}

func (c *cli) load(cmd *cobra.Command) (*Config, *logging.Logger, error) {
	cfg, err := LoadConfig(c.v, c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithWriters(logging.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr(), cmd.ErrOrStderr())
	return cfg, logger, nil
}

func (c *cli) newBumper(cmd *cobra.Command, override func(*bump.Options)) (*bump.Bumper, error) {
	cfg, logger, err := c.load(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(&opts)
	}
	return bump.New(opts, bump.WithLogger(logger))
}

func (c *cli) runBump(cmd *cobra.Command, args []string) error {
	interactive, _ := cmd.Flags().GetBool("interactive")

	var override func(*bump.Options)
	if interactive {
		target, err := c.chooseTarget(cmd)
		if errors.Is(err, errSkipped) {
			fmt.Fprintln(cmd.OutOrStdout(), "Skipped, no files were modified.")
			return nil
		}
		if err != nil {
			return err
		}
		override = func(o *bump.Options) { o.Type = target }
	}

	b, err := c.newBumper(cmd, override)
	if err != nil {
		return err
	}
	res, err := b.Run(cmd.Context())
	if res != nil {
		printResult(cmd.OutOrStdout(), res)
	}
	return err
}

// chooseTarget prompts with the candidates for the first configured file.
func (c *cli) chooseTarget(cmd *cobra.Command) (version.Target, error) {
	b, err := c.newBumper(cmd, nil)
	if err != nil {
		return "", err
	}
	current, err := b.Versions()
	if err != nil {
		return "", err
	}
	if len(current) == 0 {
		return "", errors.New("no files to bump")
	}
	return promptForTarget(current[0].Path, current[0].OldVersion)
}

func printResult(w io.Writer, res *bump.Result) {
	switch {
	case res.Skipped:
		fmt.Fprintln(w, "Cooldown active, version bump skipped.")
		return
	case res.DryRun:
		fmt.Fprintln(w, "Dry run complete, no files were modified.")
	case len(res.Files) > 0:
		fmt.Fprintln(w, "Version bump successful!")
	}
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s: %s -> %s\n", f.Path, f.OldVersion, f.NewVersion)
	}
}

func (c *cli) runNext(cmd *cobra.Command, args []string) error {
	cfg, _, err := c.load(cmd)
	if err != nil {
		return err
	}
	target, err := version.ParseTarget(cfg.Type)
	if err != nil {
		return err
	}
	next, err := version.Increment(args[0], target, cfg.Version)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), next)
	return nil
}

func (c *cli) runShow(cmd *cobra.Command, args []string) error {
	b, err := c.newBumper(cmd, nil)
	if err != nil {
		return err
	}
	current, err := b.Versions()
	for _, f := range current {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.Path, f.OldVersion)
	}
	return err
}

// runExec runs a build command and fires the emit hook once it succeeds.
func (c *cli) runExec(cmd *cobra.Command, args []string) error {
	b, err := c.newBumper(cmd, nil)
	if err != nil {
		return err
	}

	build := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
	build.Stdin = cmd.InOrStdin()
	build.Stdout = cmd.OutOrStdout()
	build.Stderr = cmd.ErrOrStderr()
	if err := build.Run(); err != nil {
		return fmt.Errorf("%s failed, version not bumped: %w", args[0], err)
	}

	if err := <-b.OnEmit(cmd.Context()); err != nil {
		return err
	}
	if res := b.LastResult(); res != nil && (res.DryRun || res.Skipped) {
		printResult(cmd.OutOrStdout(), res)
		return nil
	}
	next, err := b.NewVersion()
	switch {
	case errors.Is(err, bump.ErrNoResult):
		fmt.Fprintln(cmd.OutOrStdout(), "Version bump disabled.")
	case err != nil:
		return err
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "New Version: %s\n", next)
	}
	return nil
}

const rootLong = `Bumps the semantic version in one or more package.json-like files.

The type selects the component to increment: major, minor, patch,
prerelease or build. Less significant components are reset.`

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "versionbump",
		Short:        "bump the version field of package.json-like files",
		Long:         rootLong,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         c.runBump,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default .versionbump.yaml in $HOME or the working directory)")
	pf.StringSliceP("file", "f", nil, "file to bump, may be repeated (default package.json)")
	pf.String("new-version", "", "write this version instead of incrementing")
	pf.StringP("type", "t", string(version.DefaultTarget), "component to increment: major, minor, patch, prerelease, build")
	pf.Bool("disabled", false, "do not modify any file")
	pf.Int64("cooldown", 0, "minimum milliseconds between two bumps")
	pf.String("state-file", bump.DefaultStateFile, "file recording the last bump while a cooldown is set")
	pf.String("dir", "", "directory bare file names are resolved in (default working directory)")
	pf.Bool("dry-run", false, "report the new versions without writing them")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	for key, flag := range map[string]string{
		"files":      "file",
		"version":    "new-version",
		"type":       "type",
		"disabled":   "disabled",
		"cooldown":   "cooldown",
		"state_file": "state-file",
		"dir":        "dir",
		"dry_run":    "dry-run",
		"log_level":  "log-level",
	} {
		c.v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.Flags().BoolP("interactive", "i", false, "choose the component to increment interactively")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "next <version>",
		Short: "print the version that follows <version>",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runNext,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "print the current version of every file",
		Args:  cobra.NoArgs,
		RunE:  c.runShow,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "run a build command and bump the version when it succeeds",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runExec,
	})

	return rootCmd
}

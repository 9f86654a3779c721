package commands

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// Version information, set at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// NewVersionCommand prints version information. With --check it compares
// the build against a minimum version and fails when the build is older.
func NewVersionCommand() *cobra.Command {
	var minimum string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sqlkit version %s\n", Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)

			if minimum == "" {
				return nil
			}
			return checkVersion(Version, minimum)
		},
	}

	cmd.Flags().StringVar(&minimum, "check", "", "Fail when this build is older than the given version")

	return cmd
}

func checkVersion(current, minimum string) error {
	have, err := version.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid version format: %w", err)
	}
	want, err := version.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid version format: %w", err)
	}
	if have.LessThan(want) {
		return fmt.Errorf("sqlkit %s is older than %s", current, minimum)
	}
	return nil
}

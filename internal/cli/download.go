package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/progress"
	"github.com/Ning0612/pikpakcli/internal/service"
)

// newDownloadCmd creates the 'download' command
func newDownloadCmd(app *App) *cobra.Command {
	var (
		includes string
		excludes string
		minSize  string
		destDir  string
		flatten  bool
		renameTo string
	)

	cmd := &cobra.Command{
		Use:   "download [path]",
		Short: "Download a remote file or directory tree",
		Long: `Download a remote path into the local download directory.

Filters select which files transfer: --includes and --excludes take
comma-separated glob patterns matched against file names, with an
exclude match always winning, and --size skips files smaller than the
given threshold (accepts suffixes like 500K, 1.5G).

Interrupted transfers leave .part files which are resumed on the next
run; files already downloaded in full are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, err := app.Service(ctx)
			if err != nil {
				return err
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			var threshold int64
			if minSize != "" {
				threshold, err = domain.ParseSize(minSize)
				if err != nil {
					return err
				}
			}

			svc.SetProgressReporter(progress.NewConsolePrinter(cmd.OutOrStdout()))

			summary, err := svc.Download(ctx, path, service.DownloadOptions{
				Includes: splitPatterns(includes),
				Excludes: splitPatterns(excludes),
				MinSize:  threshold,
				DestDir:  destDir,
				Flatten:  flatten,
				RenameTo: renameTo,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary.String())

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d downloads failed",
					summary.Failed, summary.Succeeded+summary.Failed+summary.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&includes, "includes", "i", "", "comma-separated glob patterns a file must match")
	cmd.Flags().StringVarP(&excludes, "excludes", "e", "", "comma-separated glob patterns that reject a file")
	cmd.Flags().StringVar(&minSize, "size", "", "skip files smaller than this size (e.g. 500K, 1.5G)")
	cmd.Flags().StringVarP(&destDir, "dir", "d", "", "destination directory (default from session)")
	cmd.Flags().BoolVar(&flatten, "flatten", false, "place all files directly in the destination")
	cmd.Flags().StringVar(&renameTo, "rename", "", "rename a single-file download")

	return cmd
}

// splitPatterns splits a comma-separated pattern list, dropping blanks
func splitPatterns(s string) []string {
	if s == "" {
		return nil
	}

	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

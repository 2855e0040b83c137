package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/pikpakcli/internal/core/walker"
	"github.com/Ning0612/pikpakcli/internal/domain"
)

// newLsCmd creates the 'ls' command
func newLsCmd(app *App) *cobra.Command {
	var (
		recursive bool
		long      bool
		trash     bool
		audit     bool
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
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

			root, items, err := svc.Traverse(ctx, path, walker.Options{
				Recursive:      recursive,
				IncludeTrashed: trash,
				IncludeAudit:   audit,
			})
			if err != nil {
				return err
			}

			// Directories arrive before their contents, so prefixes
			// for recursive display can be built as items stream in.
			prefixes := map[string]string{root.ID: ""}
			var firstErr error

			for item := range items {
				if item.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", item.Err)
					if firstErr == nil {
						firstErr = item.Err
					}
					continue
				}

				node := item.Node
				display := prefixes[node.ParentID] + node.Name
				if node.IsDir() {
					prefixes[node.ID] = display + "/"
					display += "/"
				}

				printEntry(cmd, node, display, long)
			}

			return firstErr
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list subdirectories recursively")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show sizes and modification times")
	cmd.Flags().BoolVar(&trash, "trash", false, "include trashed entries")
	cmd.Flags().BoolVar(&audit, "audit", false, "include entries held for content review")

	return cmd
}

func printEntry(cmd *cobra.Command, node domain.Node, display string, long bool) {
	if !long {
		fmt.Fprintln(cmd.OutOrStdout(), display)
		return
	}

	size := "-"
	if node.IsFile() {
		size = domain.FormatSize(node.Size)
	}

	modified := "-"
	if !node.ModTime.IsZero() {
		modified = node.ModTime.Format("2006-01-02 15:04")
	}

	marker := ""
	if node.Trashed {
		marker = " [trashed]"
	} else if node.PendingAudit {
		marker = " [audit]"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%10s  %s  %s%s\n", size, modified, display, marker)
}

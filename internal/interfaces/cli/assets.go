package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// NewAssetsCmd returns the docket assets subcommand.
func NewAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Search IP assets",
	}
	cmd.AddCommand(newAssetSearchCmd())
	return cmd
}

func newAssetSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search local assets and the trademark bulletin",
		Long: `Search stored assets and the trademark bulletin by title, brand text,
application number or applicant. Bulletin entries that are already stored
locally are shown once, as the local asset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.InvalidParam("search query is empty")
			}
			if limit < 0 || limit > 100 {
				return errors.Newf(errors.CodeInvalidParam, "--limit must be between 1 and 100, got %d", limit)
			}

			c, ctx, cancel, err := remote(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := c.Assets().Search(ctx, query, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, searchView{res})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum hits (default: server default)")
	return cmd
}

//Personal.AI order the ending

package cli

import (
	"github.com/spf13/cobra"
)

func newCacheCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local read cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached response",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, c *Cli, _ []string) error {
			c.client.ClearCache(cmd.Context())
			c.io.Println("✓ Cache cleared")
			return nil
		}),
	})
	return cmd
}

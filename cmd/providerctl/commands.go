package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"assetmatch/internal/domain"
	"assetmatch/internal/providerconfig"
)

type opener func(ctx context.Context) (*providerconfig.Manager, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "providerctl",
		Short:         "Manage asset provider configurations",
		Long:          "providerctl lists, adds, removes and tests the asset provider configs used by the asset matching API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newListCmd(open), newAddCmd(open), newRemoveCmd(open), newTestCmd(open))
	return root
}

// withManager opens the store for the duration of one command.
func withManager(cmd *cobra.Command, open opener, fn func(ctx context.Context, m *providerconfig.Manager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, m)
}

func newListCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored provider configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, open, func(ctx context.Context, m *providerconfig.Manager) error {
				configs, err := m.GetConfigs(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tENABLED\tPRIORITY\tKEY\tRATE LIMIT\tENDPOINT")
				for _, c := range configs {
					c = c.Masked()
					fmt.Fprintf(tw, "%s\t%t\t%d\t%s\t%s\t%s\n", c.Name, c.Enabled, c.Priority, dash(c.APIKey), formatRateLimit(c.RateLimit), dash(c.APIEndpoint))
				}
				return tw.Flush()
			})
		},
	}
}

func newAddCmd(open opener) *cobra.Command {
	var (
		cfg      domain.ProviderConfig
		rpm, rpd int
		disabled bool
		skipTest bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a provider config",
		Example: `  providerctl add --name pexels --key "$PEXELS_API_KEY" --rpm 200 --rpd 20000
  providerctl add --name unsplash --key "$UNSPLASH_ACCESS_KEY" --disabled --skip-test`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Enabled = !disabled
			if cmd.Flags().Changed("rpm") || cmd.Flags().Changed("rpd") {
				cfg.RateLimit = &domain.RateLimit{RequestsPerMinute: rpm, RequestsPerDay: rpd}
			}
			cfg = cfg.Normalize()
			if cfg.APIKey == "" {
				return fmt.Errorf("--key is required")
			}
			return withManager(cmd, open, func(ctx context.Context, m *providerconfig.Manager) error {
				if !skipTest {
					if err := m.TestConnection(ctx, cfg); err != nil {
						return fmt.Errorf("connection test failed: %w", err)
					}
				}
				if err := m.UpdateConfig(ctx, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", cfg.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cfg.Name, "name", "", "provider name (pexels, unsplash)")
	cmd.Flags().StringVar(&cfg.APIKey, "key", "", "provider API key")
	cmd.Flags().StringVar(&cfg.APIEndpoint, "endpoint", "", "override the provider API base URL")
	cmd.Flags().IntVar(&cfg.Priority, "priority", 0, "listing priority, higher first")
	cmd.Flags().IntVar(&rpm, "rpm", 0, "requests per minute, 0 for unlimited")
	cmd.Flags().IntVar(&rpd, "rpd", 0, "requests per day, 0 for unlimited")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "store the provider disabled")
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "save without checking the key against the provider")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRemoveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a provider config",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, open, func(ctx context.Context, m *providerconfig.Manager) error {
				if err := m.RemoveConfig(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", strings.ToLower(strings.TrimSpace(args[0])))
				return nil
			})
		},
	}
}

func newTestCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "test NAME",
		Short: "Check a stored provider config against its upstream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, open, func(ctx context.Context, m *providerconfig.Manager) error {
				if err := m.TestStored(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", strings.ToLower(strings.TrimSpace(args[0])))
				return nil
			})
		},
	}
}

func formatRateLimit(rl *domain.RateLimit) string {
	if rl == nil {
		return "-"
	}
	return fmt.Sprintf("%d/min %d/day", rl.RequestsPerMinute, rl.RequestsPerDay)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player <username>",
		Short: "Show a player's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get("/api/v1/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find players by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"q": {args[0]}}
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}

			var result []Player
			if err := client.Get("/api/v1/players?"+q.Encode(), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default: server default)")

	return cmd
}

func newAliasCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "alias <player-id> <username>",
		Short: "Bind a platform username to an existing player (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"username": args[1],
				"platform": platform,
			}
			var result Alias

			if err := client.Post("/api/v1/players/"+url.PathEscape(args[0])+"/aliases", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Platform of the username (required)")
	_ = cmd.MarkFlagRequired("platform")

	return cmd
}

func newEnrichCmd() *cobra.Command {
	var summary, exploits string
	var tags []string

	cmd := &cobra.Command{
		Use:   "enrich <player-id>",
		Short: "Replace a player's profile summary and tags (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"summary":            summary,
				"exploit_strategies": exploits,
				"tags":               tags,
			}
			var result Player

			if err := client.Put("/api/v1/players/"+url.PathEscape(args[0])+"/profile", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Profile summary")
	cmd.Flags().StringVar(&exploits, "exploits", "", "Exploit strategies")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

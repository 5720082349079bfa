package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage your private notes on players",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <username>",
		Short: "Show your note on a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Note

			if err := client.Get("/api/v1/notes/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <username> <text>",
		Short: "Create or replace your note on a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Note

			if err := client.Put("/api/v1/notes/"+url.PathEscape(args[0]), map[string]string{"text": args[1]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	})

	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage your watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []WatchItem

			if err := client.Get("/api/v1/watchlist", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Watch a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			if err := client.Post("/api/v1/watchlist", map[string]string{"username": args[0]}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Watching " + result.Username)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <username>",
		Short: "Stop watching a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/watchlist?" + url.Values{"username": {args[0]}}.Encode()); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Removed " + args[0])
			return nil
		},
	})

	return cmd
}

//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recognised songs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := historyService()
		if err != nil {
			return err
		}
		defer svc.Close()

		q := models.HistoryQuery{}
		q.Limit, _ = cmd.Flags().GetInt("limit")
		q.Offset, _ = cmd.Flags().GetInt("offset")
		q.Artist, _ = cmd.Flags().GetString("artist")

		tags, err := svc.History(q)
		if err != nil {
			return err
		}
		return printTags(cmd.OutOrStdout(), tags)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Forget one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := historyService()
		if err != nil {
			return err
		}
		defer svc.Close()

		tag, err := svc.GetTag(args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteTag(tag.ID); err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s by %s\n", green("Deleted"), tag.Title, tag.Artist)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().Int("offset", 0, "entries to skip")
	historyCmd.Flags().String("artist", "", "only show artists containing this text")
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyService opens the history regardless of the --history setting.
func historyService() (songtag.Service, error) {
	svc, err := songtag.NewService(
		songtag.WithDBPath(viper.GetString("db")),
		songtag.WithHistory(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return svc, nil
}

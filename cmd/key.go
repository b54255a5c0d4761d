package cmd

import (
	"fmt"
	"strings"

	"github.com/nijaru/yt-summary/db"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored API key.",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Store the API key sent to the relay.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.TrimSpace(args[0])
		if key == "" {
			return errors.New("API key must not be empty")
		}

		store, err := db.Open(cfg.Client.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := db.NewCredentials(store).Set(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an API key is stored.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg.Client.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		key, err := db.NewCredentials(store).Get(cmd.Context())
		if err != nil {
			return err
		}
		if key == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "API key is not set")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key is set")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyStatusCmd)
}

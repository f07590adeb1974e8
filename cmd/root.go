package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turring",
	Short: "TurringChat - realtime imitation game server",
	Long: `TurringChat pairs players for short chat rounds against either another
human or an AI persona, without telling them which. It runs the matchmaking
window, the commit-reveal fairness scheme, the WebSocket game sessions and
the admin API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

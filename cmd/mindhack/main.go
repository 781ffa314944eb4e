package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mindhack",
	Short: "Conversation practice and support service",
	Long: `mindhack runs simulated conversations for helper training and
companion conversations for peer support.

Available subcommands:
  serve  - Run the HTTP and websocket API
  score  - Score a saved transcript file
  detect - Run crisis detection over a piece of text`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, scoreCmd, detectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command floodrpc is a JSON-RPC benchmarking tool.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const exitInterrupted = 128
const exitInvalidArgument = 255

var quiet bool

var rootCmd = &cobra.Command{
	Use:   "floodrpc",
	Short: "Benchmark a JSON-RPC endpoint",
	Long:  "floodrpc drives a JSON-RPC method at a configurable rate and concurrency, measuring throughput and response-time distributions.",
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	rootCmd.AddCommand(rpcCmd, showCmd, hdrCmd, plotCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("floodrpc failed")
		os.Exit(1)
	}
}

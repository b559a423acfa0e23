// loopnerd is a thin host for the research loop registry. The hosting agent
// framework normally calls the registry in-process; this binary exposes the
// same Execute surface for scripts and manual operation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loopnerd/internal/config"
	"loopnerd/internal/logging"
	"loopnerd/internal/registry"
	"loopnerd/internal/store"
)

var (
	verbose    bool
	configPath string
	sessionKey string
	toolCallID string
)

var rootCmd = &cobra.Command{
	Use:   "loopnerd",
	Short: "loopnerd - research loop registry",
	Long: `loopnerd tracks multi-round research workflows conducted by autonomous
agents. Each loop cycles through agent checkpoints and explicit operator
decisions to continue or close, with triage views (hot, needs_decision,
needs_review, stale) driving operator attention.`,
	SilenceUsage: true,
}

var executeCmd = &cobra.Command{
	Use:   "execute [params-json]",
	Short: "Run one registry operation from a JSON params object",
	Long: `Runs one registry operation. The single argument is the JSON params
object ({"action": "start", "topic": ...}); pass "-" to read it from stdin.
The response envelope is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logging.Init(verbose || cfg.Logging.Debug); err != nil {
			return err
		}
		defer logging.Sync()

		raw := []byte(args[0])
		if args[0] == "-" {
			raw, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read params from stdin: %w", err)
			}
		}

		var params map[string]any
		if err := json.Unmarshal(raw, &params); err != nil {
			return fmt.Errorf("failed to parse params: %w", err)
		}

		st := store.New(cfg.StorePath(), cfg.Lock)
		reg := registry.New(st, sessionKey)
		resp := reg.Execute(context.Background(), toolCallID, registry.ParamsFromMap(params))

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "loopnerd.yaml", "Config file path")
	executeCmd.Flags().StringVar(&sessionKey, "session", "", "Agent session key (determines loop ownership)")
	executeCmd.Flags().StringVar(&toolCallID, "tool-call", "", "Opaque tool call id echoed into logs")
	rootCmd.AddCommand(executeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flexonb/mindhack/internal/scoring"
	"github.com/flexonb/mindhack/internal/transcript"
)

var scoreCmd = &cobra.Command{
	Use:   "score <transcript.json>",
	Short: "Score a saved transcript file",
	Long: `Score reads a transcript and prints the end-of-session report.

The file holds either a JSON array of {"role","content"} turns or an object
with a "transcript" field of that shape. Use "-" to read standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().Bool("json", false, "print the report as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	turns, err := parseTranscript(raw)
	if err != nil {
		return err
	}
	report := scoring.Score(turns)

	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintln(out, report.Summary())
	return err
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return raw, nil
}

func parseTranscript(raw []byte) ([]transcript.Turn, error) {
	raw = bytes.TrimSpace(raw)
	var turns []transcript.Turn
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Transcript []transcript.Turn `json:"transcript"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		turns = wrapped.Transcript
	} else if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if err := transcript.Validate(turns); err != nil {
		return nil, err
	}
	return turns, nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thierrypdamiba/claude-memory-kit/internal/hooks"
	"github.com/thierrypdamiba/claude-memory-kit/internal/transcript"
)

var hookCmd = &cobra.Command{
	Use:   "hook <start|submit|stop|end>",
	Short: "Handle a Claude Code lifecycle hook (reads JSON from stdin)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hooks.Handle(args[0], tenantFlag, os.Stdin)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <transcript.jsonl>",
	Short: "Extract memories from a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		turns, err := transcript.ParseFile(args[0])
		if err != nil {
			return err
		}
		if transcript.CountUserTurns(turns) == 0 {
			fmt.Println("No user messages in transcript. Nothing to extract.")
			return nil
		}

		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.AutoExtract(cmd.Context(), tenantFlag, transcript.Condense(turns))
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thierrypdamiba/claude-memory-kit/internal/classify"
	"github.com/thierrypdamiba/claude-memory-kit/internal/memory"
)

var (
	rememberGate    string
	rememberPerson  string
	rememberProject string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <content>",
	Short: "Store a memory through the write pipeline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		content := strings.Join(args, " ")
		gate := rememberGate
		if gate == "" {
			gate = string(classify.AutoGate(content))
		}
		person, project := classify.ExtractPersonProject(content)
		if rememberPerson != "" {
			person = rememberPerson
		}
		if rememberProject != "" {
			project = rememberProject
		}

		result, err := eng.Remember(cmd.Context(), tenantFlag, content, gate, person, project)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search memories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		fmt.Println(eng.Recall(cmd.Context(), tenantFlag, strings.Join(args, " ")))
		return nil
	},
}

var forgetReason string

var forgetCmd = &cobra.Command{
	Use:   "forget <memory-id>",
	Short: "Archive and remove a memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.Forget(cmd.Context(), tenantFlag, args[0], forgetReason)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Consolidate journals, archive fading memories, refresh identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		fmt.Println(eng.Reflect(cmd.Context(), tenantFlag))
		return nil
	},
}

var identityResponse string

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show the identity card, or answer an onboarding question",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.Identity(cmd.Context(), tenantFlag, identityResponse)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint <summary>",
	Short: "Save a session checkpoint",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.Checkpoint(cmd.Context(), tenantFlag, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan memories for sensitive data patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.Scan(cmd.Context(), tenantFlag, 0)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var classifyForce bool

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify memory sensitivity via the synthesis provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		result, err := eng.ClassifyAll(cmd.Context(), tenantFlag, classifyForce)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory counts by gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, done, err := openEngine()
		if err != nil {
			return err
		}
		defer done()

		stats, err := eng.GetStats(cmd.Context(), tenantFlag)
		if err != nil {
			return err
		}
		fmt.Printf("memories: %d\n", stats.Total)
		for _, gate := range memory.ValidGates {
			if n := stats.ByGate[gate]; n > 0 {
				fmt.Printf("  %s: %d\n", gate, n)
			}
		}
		if stats.HasIdentity {
			fmt.Println("identity: present")
		}
		if stats.Checkpoint != "" {
			fmt.Printf("last checkpoint: %s\n", stats.Checkpoint)
		}
		return nil
	},
}

func init() {
	rememberCmd.Flags().StringVar(&rememberGate, "gate", "", "write gate (auto-detected when empty)")
	rememberCmd.Flags().StringVar(&rememberPerson, "person", "", "person tag")
	rememberCmd.Flags().StringVar(&rememberProject, "project", "", "project tag")
	forgetCmd.Flags().StringVar(&forgetReason, "reason", "forgotten via CLI", "why this memory is being removed")
	identityCmd.Flags().StringVar(&identityResponse, "response", "", "answer to the current onboarding question")
	classifyCmd.Flags().BoolVar(&classifyForce, "force", false, "re-classify already classified memories")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Replay a recorded engine snapshot against a candidate task",
	Long: `Loads a JSON snapshot of engine state (nodes + allocated tasks) and a
candidate task, runs Solve against a scratch copy of the engine, and prints
the decision and displacement set without mutating anything live. The
offline, no-cluster-required tool for regression-testing placement
heuristics against recorded scenarios.`,
	RunE: runWhatIf,
}

func init() {
	f := whatifCmd.Flags()
	f.String("snapshot", "", "path to engine snapshot JSON file (required)")
	f.String("task", "", "path to candidate task JSON file (required)")
	f.String("output", "table", "output format: table, json")

	_ = whatifCmd.MarkFlagRequired("snapshot")
	_ = whatifCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(whatifCmd)
}

func runWhatIf(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	taskPath, _ := cmd.Flags().GetString("task")

	snapData, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("reading snapshot file: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(snapData, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}

	taskData, err := os.ReadFile(taskPath)
	if err != nil {
		return fmt.Errorf("reading task file: %w", err)
	}
	var taskSnap engine.TaskSnapshot
	if err := json.Unmarshal(taskData, &taskSnap); err != nil {
		return fmt.Errorf("parsing candidate task: %w", err)
	}

	priority, err := model.ParsePriority(taskSnap.Priority)
	if err != nil {
		return fmt.Errorf("parsing candidate task priority: %w", err)
	}
	task := model.Task{
		ID:                taskSnap.ID,
		Name:              taskSnap.Name,
		CPURequirement:    taskSnap.CPURequirement,
		MemoryRequirement: taskSnap.MemoryRequirement,
		Priority:          priority,
		Color:             taskSnap.Color,
	}

	scratchEngine, err := engine.FromSnapshot(snap, zap.NewNop().Sugar())
	if err != nil {
		return fmt.Errorf("rebuilding scratch engine: %w", err)
	}

	node, displacements := scratchEngine.Solve(task)

	outputFmt, _ := cmd.Flags().GetString("output")
	if outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"node":          node,
			"admitted":      node != "",
			"displacements": displacements,
		})
	}

	if node == "" {
		fmt.Printf("task %s could not be placed\n", task.Name)
		return nil
	}
	fmt.Printf("task %s placed on node %s\n", task.Name, node)
	if len(displacements) == 0 {
		fmt.Println("no displacements")
		return nil
	}
	fmt.Println("displacements:")
	for id, d := range displacements {
		if d.TargetNode == "" {
			fmt.Printf("  %s offloaded (no compatible node with room)\n", id)
			continue
		}
		fmt.Printf("  %s moved to %s\n", id, d.TargetNode)
	}
	return nil
}

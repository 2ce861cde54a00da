package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/cluster"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover cluster nodes without starting the controller",
	Long: `Connects to the cluster, runs the same node discovery the controller
uses on startup, and prints the resulting node set. Useful for validating
node capacity and colors annotations before a real run.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("output", "table", "output format: table, json")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, _, _, _, err := cluster.NewClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		return fmt.Errorf("connecting to cluster: %w", err)
	}

	adapter := cluster.NewKubeAdapter(client, zap.NewNop().Sugar(),
		cluster.WithManagementNodeLabel(cfg.Kubernetes.ManagementNodeLabel),
		cluster.WithColorsAnnotation(cfg.Kubernetes.ColorsAnnotation),
		cluster.WithCapacityDerateFactor(cfg.Kubernetes.CapacityDerateFactor),
	)

	specs, err := adapter.DiscoverNodes(ctx)
	if err != nil {
		return fmt.Errorf("discovering nodes: %w", err)
	}

	outputFmt, _ := cmd.Flags().GetString("output")
	if outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(specs)
	}

	fmt.Printf("%-24s %10s %12s %s\n", "NODE", "CPU(m)", "MEM(MiB)", "COLORS")
	for _, s := range specs {
		fmt.Printf("%-24s %10d %12d %v\n", s.Name, s.CPUMillis, s.MemoryBytes/(1024*1024), s.Colors)
	}
	fmt.Printf("\n%d eligible node(s) discovered\n", len(specs))
	return nil
}

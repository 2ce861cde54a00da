package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/fricosched/frico/internal/cluster"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a point-in-time summary of a running controller's counters",
	Long: `Connects to a running FRICO pod's /metrics endpoint, optionally via an
SSH-free Kubernetes port-forward when run outside the cluster, and prints
the current allocation counters.`,
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.String("url", "", "metrics URL (bypasses port-forward, e.g. http://localhost:8080/metrics)")
	f.Int32("port", 8080, "remote port FRICO's /metrics endpoint listens on")
	f.Duration("timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	metricsURL, _ := cmd.Flags().GetString("url")

	if metricsURL == "" {
		client, restConfig, _, inCluster, err := cluster.NewClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
		if err != nil {
			return fmt.Errorf("connecting to cluster: %w", err)
		}
		if inCluster {
			return fmt.Errorf("--url is required when running in-cluster")
		}

		podName, err := cluster.FindSchedulerPod(ctx, client, cfg.Kubernetes.Namespace)
		if err != nil {
			return fmt.Errorf("finding scheduler pod: %w", err)
		}

		port, _ := cmd.Flags().GetInt32("port")
		session, err := cluster.StartPortForward(restConfig, client, podName, cfg.Kubernetes.Namespace, port)
		if err != nil {
			return fmt.Errorf("starting port-forward: %w", err)
		}
		defer session.Close()

		metricsURL = fmt.Sprintf("http://127.0.0.1:%d/metrics", session.LocalPort)
		if verbose {
			fmt.Printf("Port-forwarding %s/%s → %s\n", cfg.Kubernetes.Namespace, podName, metricsURL)
		}
	}

	httpClient := &http.Client{Timeout: timeout}
	resp, err := httpClient.Get(metricsURL)
	if err != nil {
		return fmt.Errorf("fetching metrics: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("metrics endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return fmt.Errorf("parsing metrics: %w", err)
	}

	names := make([]string, 0, len(families))
	for name := range families {
		if strings.HasPrefix(name, "frico_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		fam := families[name]
		for _, m := range fam.Metric {
			var value float64
			switch {
			case m.Counter != nil:
				value = m.Counter.GetValue()
			case m.Gauge != nil:
				value = m.Gauge.GetValue()
			case m.Histogram != nil:
				value = float64(m.Histogram.GetSampleCount())
			default:
				continue
			}
			labels := make([]string, 0, len(m.Label))
			for _, l := range m.Label {
				labels = append(labels, fmt.Sprintf("%s=%s", l.GetName(), l.GetValue()))
			}
			if len(labels) > 0 {
				fmt.Printf("%-40s {%s} = %v\n", name, strings.Join(labels, ","), value)
			} else {
				fmt.Printf("%-40s = %v\n", name, value)
			}
		}
	}

	return nil
}

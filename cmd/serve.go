package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/arrival"
	"github.com/fricosched/frico/internal/audit"
	"github.com/fricosched/frico/internal/cluster"
	"github.com/fricosched/frico/internal/completion"
	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/frontend"
	"github.com/fricosched/frico/internal/logging"
	"github.com/fricosched/frico/internal/model"
	"github.com/fricosched/frico/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the FRICO admission and placement controller",
	Long: `Discovers the cluster's nodes, then starts the arrival pipeline, the
completion watcher, and the HTTP front-end. Blocks until SIGTERM/SIGINT,
then drains in-flight work before exiting.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(cfg.Logging.Path, cfg.Logging.Devel)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	startedAt := time.Now()
	if err := cfg.WriteRunIdentity(startedAt); err != nil {
		logger.Warnw("failed to write run identity", "err", err)
	}
	logger.Infow("starting frico", "run_id", cfg.RunIdentity(startedAt))

	client, _, _, _, err := cluster.NewClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		return fmt.Errorf("connecting to cluster: %w", err)
	}

	adapter := cluster.NewKubeAdapter(client, logger,
		cluster.WithManagementNodeLabel(cfg.Kubernetes.ManagementNodeLabel),
		cluster.WithColorsAnnotation(cfg.Kubernetes.ColorsAnnotation),
		cluster.WithCapacityDerateFactor(cfg.Kubernetes.CapacityDerateFactor),
	)

	specs, err := adapter.DiscoverNodes(ctx)
	if err != nil {
		return fmt.Errorf("discovering nodes: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("no eligible nodes discovered")
	}

	nodes := make([]*model.Node, 0, len(specs))
	for _, s := range specs {
		nodes = append(nodes, model.NewNode(s.ID, s.Name, s.CPUMillis, s.MemoryBytes, s.Colors))
	}

	eng := engine.New(nodes, cfg.Engine.ReallocThreshold, logger)
	metrics := telemetry.New(cfg.RunIdentity(startedAt))

	auditWriter, err := audit.Open(cfg.Audit.Path, cfg.Audit.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer func() { _ = auditWriter.Close() }()

	reconciler := &cluster.AdapterReconciler{Adapter: adapter, Namespace: cfg.Kubernetes.Namespace, Logger: logger, Audit: auditWriter}
	pipeline := arrival.New(eng, reconciler, metrics, logger, 64)

	watcher := completion.New(adapter, eng, metrics, cfg.Kubernetes.Namespace, logger)

	server := frontend.New(cfg.HTTP.Address, pipeline, metrics, logger, 0)

	if cfg.AWS.Enabled {
		resolver, err := cluster.NewCostResolver(ctx, cfg.AWS.Region, cfg.AWS.CacheDir, logger)
		if err != nil {
			logger.Warnw("AWS cost enrichment disabled", "err", err)
		} else {
			go publishNodeCosts(ctx, resolver, specs, metrics, cfg.AWS.TTL, logger)
		}
	}

	go pipeline.Run(ctx)
	go watcher.Run(ctx)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.Errorw("http front-end stopped with error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http front-end shutdown error", "err", err)
	}

	return nil
}

// publishNodeCosts periodically resolves and republishes the on-demand
// hourly cost of every discovered node's backing EC2 instance. It is
// advisory telemetry only, per spec.md §6.4, and never consulted by Solve.
func publishNodeCosts(ctx context.Context, resolver *cluster.CostResolver, specs []cluster.NodeSpec, metrics *telemetry.Metrics, interval time.Duration, logger *zap.SugaredLogger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	resolve := func() {
		for _, s := range specs {
			if s.ProviderID == "" {
				continue
			}
			cost, err := resolver.ResolveHourlyCost(ctx, s.ProviderID)
			if err != nil {
				logger.Warnw("failed to resolve node hourly cost", "node", s.Name, "err", err)
				continue
			}
			metrics.NodeHourlyCost.WithLabelValues(s.Name).Set(cost)
		}
	}

	resolve()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resolve()
		}
	}
}

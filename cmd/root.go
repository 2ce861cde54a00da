package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fricosched/frico/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "frico",
	Short: "FRICO is an admission and placement controller for latency-sensitive tasks",
	Long: `FRICO decides, for each arriving task, whether it fits the cluster's
residual budget, which color-compatible node to place it on, and which
already-admitted tasks (if any) must be relocated or evicted to make room.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: frico.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.PersistentFlags().String("kubeconfig", "", "path to kubeconfig file")
	rootCmd.PersistentFlags().String("kube-context", "", "Kubernetes context name")
	rootCmd.PersistentFlags().String("namespace", "", "namespace tasks are scheduled into")
	rootCmd.PersistentFlags().Int("realloc-threshold", 0, "max tasks considered for Tier 3 preemption per node (0 disables Tier 3)")
	rootCmd.PersistentFlags().String("http-address", "", "address the HTTP front-end listens on")
	rootCmd.PersistentFlags().String("log-path", "", "log output path (stdout or a file path)")
	rootCmd.PersistentFlags().String("simulation-name", "", "run identity prefix written to simulation.id")

	_ = viper.BindPFlag("kubernetes.kubeconfig", rootCmd.PersistentFlags().Lookup("kubeconfig"))
	_ = viper.BindPFlag("kubernetes.context", rootCmd.PersistentFlags().Lookup("kube-context"))
	_ = viper.BindPFlag("kubernetes.namespace", rootCmd.PersistentFlags().Lookup("namespace"))
	_ = viper.BindPFlag("engine.realloc_threshold", rootCmd.PersistentFlags().Lookup("realloc-threshold"))
	_ = viper.BindPFlag("http.address", rootCmd.PersistentFlags().Lookup("http-address"))
	_ = viper.BindPFlag("logging.path", rootCmd.PersistentFlags().Lookup("log-path"))
	_ = viper.BindPFlag("simulation.name", rootCmd.PersistentFlags().Lookup("simulation-name"))
}

func loadConfig() error {
	cfg = config.Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("frico")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.frico")
	}

	// FRICO_MAX_REALLOC, FRICO_SIMULATION_NAME, FRICO_LOG_PATH etc, matching
	// the historical MAX_REALLOC/SIMULATION_NAME/LOG_PATH variable names.
	viper.SetEnvPrefix("FRICO")
	_ = viper.BindEnv("engine.realloc_threshold", "FRICO_MAX_REALLOC", "MAX_REALLOC")
	_ = viper.BindEnv("simulation.name", "FRICO_SIMULATION_NAME", "SIMULATION_NAME")
	_ = viper.BindEnv("logging.path", "FRICO_LOG_PATH", "LOG_PATH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return cfg.Validate()
}

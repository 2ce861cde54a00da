package cluster

import (
	"k8s.io/client-go/kubernetes"

	"go.uber.org/zap"
)

// KubeAdapter is the Adapter implementation backed by client-go.
type KubeAdapter struct {
	client kubernetes.Interface
	logger *zap.SugaredLogger

	managementNodeLabel string
	colorsAnnotation     string
	capacityDerateFactor float64
}

// KubeAdapterOption configures a KubeAdapter.
type KubeAdapterOption func(*KubeAdapter)

// WithManagementNodeLabel sets the label key used to identify and exclude
// management/control-plane nodes from discovery.
func WithManagementNodeLabel(label string) KubeAdapterOption {
	return func(a *KubeAdapter) { a.managementNodeLabel = label }
}

// WithColorsAnnotation sets the node annotation key holding the
// comma-separated color list.
func WithColorsAnnotation(annotation string) KubeAdapterOption {
	return func(a *KubeAdapter) { a.colorsAnnotation = annotation }
}

// WithCapacityDerateFactor sets the fraction of reported node capacity to
// treat as usable, matching the original's 0.95 safety margin.
func WithCapacityDerateFactor(factor float64) KubeAdapterOption {
	return func(a *KubeAdapter) { a.capacityDerateFactor = factor }
}

// NewKubeAdapter wraps an existing clientset.
func NewKubeAdapter(client kubernetes.Interface, logger *zap.SugaredLogger, opts ...KubeAdapterOption) *KubeAdapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &KubeAdapter{
		client:               client,
		logger:               logger,
		managementNodeLabel:  "frico.io/management",
		colorsAnnotation:     "colors",
		capacityDerateFactor: 0.95,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Adapter = (*KubeAdapter)(nil)

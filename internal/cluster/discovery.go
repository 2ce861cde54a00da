package cluster

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DiscoverNodes lists every non-management node, de-rating capacity by
// CapacityDerateFactor and parsing its colors annotation, matching the
// original's init_nodes.
func (a *KubeAdapter) DiscoverNodes(ctx context.Context) ([]NodeSpec, error) {
	list, err := a.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	specs := make([]NodeSpec, 0, len(list.Items))
	for i, n := range list.Items {
		if _, isManagement := n.Labels[a.managementNodeLabel]; isManagement {
			continue
		}

		var cpuMillis int64
		if q, present := n.Status.Capacity["cpu"]; present {
			cpuMillis = parseCPUToMillicores(q.String())
		}
		var memBytes int64
		if q, present := n.Status.Capacity["memory"]; present {
			memBytes = parseMemoryToBytes(q.String())
		}

		colors := parseColors(n.Annotations[a.colorsAnnotation])
		if len(colors) == 0 {
			a.logger.Warnw("node has no colors annotation, it will never be eligible for any task", "node", n.Name)
		}

		specs = append(specs, NodeSpec{
			ID:          i,
			Name:        n.Name,
			ProviderID:  n.Spec.ProviderID,
			CPUMillis:   int64(a.capacityDerateFactor * float64(cpuMillis)),
			MemoryBytes: int64(a.capacityDerateFactor * float64(memBytes)),
			Colors:      colors,
		})
	}

	a.logger.Infow("discovered nodes", "count", len(specs))
	return specs, nil
}

func parseColors(annotation string) []string {
	if annotation == "" {
		return nil
	}
	parts := strings.Split(annotation, ",")
	colors := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}

// parseCPUToMillicores parses a Kubernetes CPU quantity string into
// millicores. Ex: "500m" -> 500, "1" -> 1000.
func parseCPUToMillicores(cpuStr string) int64 {
	if strings.HasSuffix(cpuStr, "m") {
		v, _ := strconv.ParseInt(strings.TrimSuffix(cpuStr, "m"), 10, 64)
		return v
	}
	v, _ := strconv.ParseFloat(cpuStr, 64)
	return int64(v * 1000)
}

var memoryUnitMultipliers = map[string]int64{
	"Ki": 1024,
	"Mi": 1024 * 1024,
	"Gi": 1024 * 1024 * 1024,
	"Ti": 1024 * 1024 * 1024 * 1024,
	"k":  1000,
	"M":  1000 * 1000,
	"G":  1000 * 1000 * 1000,
}

// parseMemoryToBytes parses a Kubernetes memory quantity string into bytes.
// Ex: "1Gi" -> 1073741824, "500Mi" -> 524288000.
func parseMemoryToBytes(memStr string) int64 {
	for _, suffix := range []string{"Ki", "Mi", "Gi", "Ti", "k", "M", "G"} {
		if strings.HasSuffix(memStr, suffix) {
			v, _ := strconv.ParseFloat(strings.TrimSuffix(memStr, suffix), 64)
			return int64(v * float64(memoryUnitMultipliers[suffix]))
		}
	}
	v, _ := strconv.ParseInt(memStr, 10, 64)
	return v
}

package cluster

import (
	"context"
	"fmt"
	"io"
	"net/http"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// PortForwardSession represents an active port-forward tunnel to a pod.
type PortForwardSession struct {
	LocalPort int32
	stopChan  chan struct{}
}

// Close terminates the port-forward tunnel.
func (s *PortForwardSession) Close() {
	close(s.stopChan)
}

// FindSchedulerPod locates the running frico pod in namespace, identified by
// the frico.io/component=scheduler label, used by the inspect command to
// reach its /metrics endpoint without a Service.
func FindSchedulerPod(ctx context.Context, client kubernetes.Interface, namespace string) (string, error) {
	pods, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "frico.io/component=scheduler",
	})
	if err != nil {
		return "", fmt.Errorf("listing scheduler pods: %w", err)
	}
	for _, pod := range pods.Items {
		if pod.Status.Phase == "Running" {
			return pod.Name, nil
		}
	}
	return "", fmt.Errorf("no running scheduler pod found in namespace %s", namespace)
}

// StartPortForward opens a port-forward tunnel to the given pod and port,
// binding to a random local port on 127.0.0.1.
func StartPortForward(restConfig *rest.Config, client kubernetes.Interface, podName, namespace string, podPort int32) (*PortForwardSession, error) {
	transport, upgrader, err := spdy.RoundTripperFor(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating SPDY round-tripper: %w", err)
	}

	restClient := client.CoreV1().RESTClient()
	reqURL := restClient.Post().
		Resource("pods").
		Namespace(namespace).
		Name(podName).
		SubResource("portforward").
		URL()

	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, reqURL)

	stopChan := make(chan struct{}, 1)
	readyChan := make(chan struct{})

	ports := []string{fmt.Sprintf("0:%d", podPort)}
	fw, err := portforward.New(dialer, ports, stopChan, readyChan, io.Discard, io.Discard)
	if err != nil {
		return nil, fmt.Errorf("creating port-forwarder: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- fw.ForwardPorts()
	}()

	select {
	case <-readyChan:
	case err := <-errChan:
		return nil, fmt.Errorf("port-forward failed: %w", err)
	}

	forwardedPorts, err := fw.GetPorts()
	if err != nil {
		close(stopChan)
		return nil, fmt.Errorf("getting forwarded ports: %w", err)
	}

	return &PortForwardSession{
		LocalPort: int32(forwardedPorts[0].Local),
		stopChan:  stopChan,
	}, nil
}

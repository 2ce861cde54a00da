package cluster

import (
	"context"
	"fmt"
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/fricosched/frico/internal/model"
)

const (
	completionLabelSelector = "frico=true"
	taskImage               = "alpine:3.19"
)

// CreateWorkload schedules a pod for a newly placed task, pinned to its
// assigned node via a node selector, matching the original's pod shape.
func (a *KubeAdapter) CreateWorkload(ctx context.Context, pd PodData) error {
	execSeconds := pd.ExecTimeSeconds
	if execSeconds <= 0 {
		execSeconds = 5
	}

	arrivalTime := pd.ArrivalTime
	if arrivalTime.IsZero() {
		arrivalTime = time.Now()
	}

	pod := buildPod(pd.Task, pd.NodeName, execSeconds, arrivalTime)
	_, err := a.client.CoreV1().Pods(pd.Namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating workload %s: %w", pd.Task.Name, err)
	}
	a.logger.Infow("workload created", "task_id", pd.Task.ID, "node", pd.NodeName)
	return nil
}

// DeleteWorkload removes a pod. A not-found error is not reported; the
// workload is already gone, which is the caller's desired end state.
func (a *KubeAdapter) DeleteWorkload(ctx context.Context, taskName, namespace string) error {
	zero := int64(0)
	err := a.client.CoreV1().Pods(namespace).Delete(ctx, taskName, metav1.DeleteOptions{GracePeriodSeconds: &zero})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting workload %s: %w", taskName, err)
	}
	a.logger.Infow("workload deleted", "task", taskName)
	return nil
}

// Reschedule moves task onto newNodeName. If the original pod can still be
// read, its remaining execution time is computed from its recorded arrival
// time and preserved; otherwise a fresh 5-second placeholder workload is
// created, matching the original's reschedule fallback.
func (a *KubeAdapter) Reschedule(ctx context.Context, task model.Task, namespace, newNodeName string) error {
	existing, err := a.client.CoreV1().Pods(namespace).Get(ctx, task.Name, metav1.GetOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		a.logger.Warnw("could not read existing pod before rescheduling", "task_id", task.ID, "err", err)
	}

	execSeconds := int64(5)
	if existing != nil && err == nil {
		if arrivalStr, ok := existing.Labels["arrival_time"]; ok {
			if execStr, ok := existing.Labels["exec_time"]; ok {
				arrival, aerr := strconv.ParseInt(arrivalStr, 10, 64)
				original, eerr := strconv.ParseInt(execStr, 10, 64)
				if aerr == nil && eerr == nil {
					remaining := original - (time.Now().Unix() - arrival)
					if remaining < 5 {
						remaining = 5
					}
					execSeconds = remaining
				}
			}
		}
		if delErr := a.client.CoreV1().Pods(namespace).Delete(ctx, task.Name, metav1.DeleteOptions{}); delErr != nil && !apierrors.IsNotFound(delErr) {
			a.logger.Warnw("failed to delete pod before rescheduling", "task_id", task.ID, "err", delErr)
		}
	}

	pod := buildPod(task, newNodeName, execSeconds, time.Now())
	if _, err := a.client.CoreV1().Pods(namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("recreating rescheduled workload %s: %w", task.Name, err)
	}
	a.logger.Infow("workload rescheduled", "task_id", task.ID, "node", newNodeName, "exec_seconds", execSeconds)
	return nil
}

func buildPod(task model.Task, nodeName string, execSeconds int64, now time.Time) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name: task.Name,
			Labels: map[string]string{
				"frico":        "true",
				"task_id":      task.ID,
				"node_name":    nodeName,
				"arrival_time": strconv.FormatInt(now.Unix(), 10),
				"exec_time":    strconv.FormatInt(execSeconds, 10),
			},
			Annotations: map[string]string{
				"v2x.context/priority":  strconv.Itoa(int(task.Priority)),
				"v2x.context/color":     task.Color,
				"v2x.context/exec_time": strconv.FormatInt(execSeconds, 10),
			},
		},
		Spec: corev1.PodSpec{
			NodeSelector:  map[string]string{"name": nodeName},
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:    "task",
					Image:   taskImage,
					Command: []string{"/bin/sh"},
					Args:    []string{"-c", fmt.Sprintf("sleep %d && exit 0", execSeconds)},
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    *resource.NewMilliQuantity(task.CPURequirement, resource.DecimalSI),
							corev1.ResourceMemory: *resource.NewQuantity(task.MemoryRequirement, resource.BinarySI),
						},
					},
				},
			},
		},
	}
}

// WatchCompletions watches for successfully completed task pods and invokes
// handler for each, matching the original's watch_pods loop. It returns
// when ctx is canceled or the underlying watch breaks; callers (the
// completion watcher) are expected to reconnect.
func (a *KubeAdapter) WatchCompletions(ctx context.Context, namespace string, handler CompletionHandler) error {
	w, err := a.client.CoreV1().Pods(namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: "status.phase=Succeeded",
		LabelSelector: completionLabelSelector,
	})
	if err != nil {
		return fmt.Errorf("watching completions: %w", err)
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.ResultChan():
			if !ok {
				return fmt.Errorf("completion watch channel closed")
			}
			if event.Type != watch.Added {
				continue
			}
			pod, ok := event.Object.(*corev1.Pod)
			if !ok {
				continue
			}
			nodeName := pod.Labels["node_name"]
			taskID := pod.Labels["task_id"]
			if taskID == "" || nodeName == "" {
				a.logger.Warnw("completed pod missing task_id/node_name labels", "pod", pod.Name)
				continue
			}
			handler(taskID, nodeName)
		}
	}
}

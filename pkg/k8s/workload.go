// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package k8s

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"

	"github.com/prishajain1/accelerator-microbenchmarks/pkg/logging"
)

// jobSetNameLabel is the label xpk-created JobSets stamp on their pods.
const jobSetNameLabel = "jobset.sigs.k8s.io/jobset-name"

// WorkloadSelector returns the label selector matching a workload's pods.
func WorkloadSelector(workloadName string) string {
	return fmt.Sprintf("%s=%s", jobSetNameLabel, workloadName)
}

// ListWorkloadPods returns the pods belonging to the named workload.
func ListWorkloadPods(ctx context.Context, client kubernetes.Interface, namespace, workloadName string) ([]corev1.Pod, error) {
	pods, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: WorkloadSelector(workloadName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods for workload %q: %w", workloadName, err)
	}
	return pods.Items, nil
}

// WaitForCompletion polls the workload's pods until every pod has
// succeeded. It fails fast when any pod enters the Failed phase, and times
// out after the given duration.
func WaitForCompletion(ctx context.Context, client kubernetes.Interface, namespace, workloadName string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}
	return wait.PollUntilContextTimeout(ctx, 15*time.Second, timeout, true,
		func(ctx context.Context) (bool, error) {
			pods, err := ListWorkloadPods(ctx, client, namespace, workloadName)
			if err != nil {
				return false, err
			}
			if len(pods) == 0 {
				// Pods may not be scheduled yet.
				return false, nil
			}

			succeeded := 0
			for i := range pods {
				switch pods[i].Status.Phase {
				case corev1.PodFailed:
					return false, fmt.Errorf("pod %q failed: %s", pods[i].Name, podFailureMessage(&pods[i]))
				case corev1.PodSucceeded:
					succeeded++
				}
			}
			logging.Debug("Workload %q: %d/%d pods succeeded", workloadName, succeeded, len(pods))
			return succeeded == len(pods), nil
		})
}

func podFailureMessage(pod *corev1.Pod) string {
	for _, status := range pod.Status.ContainerStatuses {
		if status.State.Terminated != nil && status.State.Terminated.ExitCode != 0 {
			term := status.State.Terminated
			return fmt.Sprintf("container %q exited with code %d (%s)", status.Name, term.ExitCode, term.Reason)
		}
	}
	if pod.Status.Message != "" {
		return pod.Status.Message
	}
	return "no terminated container status available"
}

// TailLogs follows the logs of every pod in the workload, writing each line
// to out prefixed with the pod name. It returns when all streams close or
// the context is cancelled.
func TailLogs(ctx context.Context, client kubernetes.Interface, namespace, workloadName string, out io.Writer) error {
	pods, err := ListWorkloadPods(ctx, client, namespace, workloadName)
	if err != nil {
		return err
	}
	if len(pods) == 0 {
		return fmt.Errorf("no pods found for workload %q", workloadName)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := range pods {
		pod := pods[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := streamPodLogs(ctx, client, namespace, pod.Name, out, &mu); err != nil {
				logging.Error("Log stream for pod %q ended: %v", pod.Name, err)
			}
		}()
	}
	wg.Wait()
	return nil
}

func streamPodLogs(ctx context.Context, client kubernetes.Interface, namespace, podName string, out io.Writer, mu *sync.Mutex) error {
	req := client.CoreV1().Pods(namespace).GetLogs(podName, &corev1.PodLogOptions{Follow: true})
	stream, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("failed to open log stream: %w", err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		mu.Lock()
		fmt.Fprintf(out, "[%s] %s\n", podName, scanner.Text())
		mu.Unlock()
	}
	return scanner.Err()
}

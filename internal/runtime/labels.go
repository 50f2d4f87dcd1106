package runtime

import "fmt"

// Label key constants define the Docker labels stamped onto every container
// the adapter creates. They let stevedore find its own containers with
// server-side label filters and keep them distinguishable from containers
// created by other tools.
//
// All keys share the "stevedore." prefix, the same namespace used by the
// hook labels in pod files.
const (
	// LabelManagedBy identifies containers managed by stevedore.
	// Key: "stevedore.managed-by", Value: always "stevedore".
	LabelManagedBy = "stevedore.managed-by"

	// LabelPod stores the pod (project) name the container belongs to.
	LabelPod = "stevedore.pod"

	// LabelService stores the service name within the pod.
	LabelService = "stevedore.service"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "stevedore"

// BuildLabels constructs the full label map for a service container: the
// service's own pod file labels plus the management labels. Management keys
// win on collision so discovery cannot be spoofed from a pod file.
func BuildLabels(pod, service string, serviceLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(serviceLabels)+3)
	for k, v := range serviceLabels {
		labels[k] = v
	}
	labels[LabelManagedBy] = ManagedByValue
	labels[LabelPod] = pod
	labels[LabelService] = service
	return labels
}

// ContainerName returns the canonical container name for a service within
// a pod: "<pod>-<service>". Pod names namespace containers so two pods can
// define services with the same name on one host.
func ContainerName(pod, service string) string {
	return fmt.Sprintf("%s-%s", pod, service)
}

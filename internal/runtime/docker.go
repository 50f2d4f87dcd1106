package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	shellwords "github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/mmr-tortoise/stevedore/internal/logging"
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// stopTimeoutSeconds is how long a container gets to shut down gracefully
// before the daemon kills it.
const stopTimeoutSeconds = 10

// DockerAdapter is the production Adapter. Container lifecycle operations
// (create, start, stop, inspect) go through the Docker Engine SDK; image
// builds and hook execution shell out to the docker CLI, which already
// handles build context upload and TTY plumbing better than hand-rolled SDK
// calls would.
type DockerAdapter struct {
	cli *client.Client
	cfg *model.PodConfig
	pod string
	log *zap.SugaredLogger
}

// NewDockerAdapter connects to the Docker daemon using the standard
// environment configuration (DOCKER_HOST et al) with automatic API version
// negotiation.
func NewDockerAdapter(cfg *model.PodConfig, pod string, log *zap.SugaredLogger) (*DockerAdapter, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &DockerAdapter{cli: cli, cfg: cfg, pod: pod, log: log}, nil
}

// Close releases the underlying SDK client.
func (d *DockerAdapter) Close() error {
	return d.cli.Close()
}

// Invoke implements Adapter.
func (d *DockerAdapter) Invoke(ctx context.Context, service string, action Action, hookCommand string) (Result, error) {
	def, ok := d.cfg.Service(service)
	if !ok {
		return Result{ExitCode: 1}, fmt.Errorf("service %q not in pod config", service)
	}

	d.log.Debugw("invoking docker adapter", "service", service, "action", action)

	switch action {
	case ActionStart:
		return d.start(ctx, service, def)
	case ActionStop:
		return d.stop(ctx, service)
	case ActionBuild:
		return d.build(ctx, service, def)
	case ActionShell, ActionTest:
		return d.execHook(ctx, service, hookCommand)
	case ActionStatus:
		return d.status(ctx, service)
	default:
		return Result{ExitCode: 1}, fmt.Errorf("unknown action %q", action)
	}
}

// start ensures the service's container exists and starts it.
func (d *DockerAdapter) start(ctx context.Context, service string, def *model.ServiceDefinition) (Result, error) {
	id, err := d.findContainer(ctx, service)
	if err != nil {
		return Result{ExitCode: 1}, err
	}
	if id == "" {
		id, err = d.createContainer(ctx, service, def)
		if err != nil {
			return Result{ExitCode: 1}, err
		}
	}

	if err := d.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("start container %q: %w", ContainerName(d.pod, service), err)
	}
	return Result{Stdout: fmt.Sprintf("started %s", ContainerName(d.pod, service))}, nil
}

// stop stops the service's container. A container that was never created
// counts as already stopped.
func (d *DockerAdapter) stop(ctx context.Context, service string) (Result, error) {
	id, err := d.findContainer(ctx, service)
	if err != nil {
		return Result{ExitCode: 1}, err
	}
	if id == "" {
		return Result{Stdout: fmt.Sprintf("%s not created", ContainerName(d.pod, service))}, nil
	}

	timeout := stopTimeoutSeconds
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("stop container %q: %w", ContainerName(d.pod, service), err)
	}
	return Result{Stdout: fmt.Sprintf("stopped %s", ContainerName(d.pod, service))}, nil
}

// build builds the service's image from its build context, or pulls the
// image for services defined by reference only.
func (d *DockerAdapter) build(ctx context.Context, service string, def *model.ServiceDefinition) (Result, error) {
	if def.Build != "" {
		return d.runDocker(ctx, "build", "-t", d.imageRef(service, def), def.Build)
	}

	reader, err := d.cli.ImagePull(ctx, def.Image, image.PullOptions{})
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("pull image %q: %w", def.Image, err)
	}
	defer func() { _ = reader.Close() }()
	// The pull stream must be drained for the operation to complete;
	// the progress JSON itself is not interesting here.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("pull image %q: %w", def.Image, err)
	}
	return Result{Stdout: fmt.Sprintf("pulled %s", def.Image)}, nil
}

// execHook runs a hook command inside the service's running container via
// `docker exec`. The hook string from the labels is tokenized with
// shellwords, so quoting inside the configured command behaves the way it
// would in a shell.
func (d *DockerAdapter) execHook(ctx context.Context, service, hookCommand string) (Result, error) {
	if hookCommand == "" {
		return Result{ExitCode: 1}, fmt.Errorf("service %q: empty hook command", service)
	}

	argv, err := shellwords.Parse(hookCommand)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("service %q: cannot tokenize hook command %q: %w", service, hookCommand, err)
	}

	args := append([]string{"exec", ContainerName(d.pod, service)}, argv...)
	return d.runDocker(ctx, args...)
}

// status reports the container state for the service.
func (d *DockerAdapter) status(ctx context.Context, service string) (Result, error) {
	id, err := d.findContainer(ctx, service)
	if err != nil {
		return Result{ExitCode: 1}, err
	}
	if id == "" {
		return Result{Stdout: "not created"}, nil
	}

	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("inspect container %q: %w", ContainerName(d.pod, service), err)
	}
	return Result{Stdout: info.State.Status}, nil
}

// findContainer locates the service's container by its management labels.
// Returns an empty id when no container exists yet. Label filtering happens
// server-side, so unrelated containers on the host are never transferred.
func (d *DockerAdapter) findContainer(ctx context.Context, service string) (string, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelPod+"="+d.pod),
		filters.Arg("label", LabelService+"="+service),
	)

	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", fmt.Errorf("list containers for %q: %w", service, err)
	}
	if len(containers) == 0 {
		return "", nil
	}
	return containers[0].ID, nil
}

// createContainer creates the service's container from its merged
// definition: image, port bindings, volume binds, hostname, and labels.
func (d *DockerAdapter) createContainer(ctx context.Context, service string, def *model.ServiceDefinition) (string, error) {
	exposed, bindings, err := portConfig(def.Ports)
	if err != nil {
		return "", fmt.Errorf("service %q: %w", service, err)
	}

	cfg := &container.Config{
		Image:        d.imageRef(service, def),
		Hostname:     def.Hostname,
		Labels:       BuildLabels(d.pod, service, def.Labels),
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{
		PortBindings: bindings,
		Binds:        def.Volumes,
	}

	created, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, ContainerName(d.pod, service))
	if err != nil {
		return "", fmt.Errorf("create container %q: %w", ContainerName(d.pod, service), err)
	}
	return created.ID, nil
}

// imageRef returns the image reference to run for a service: the declared
// image, or the locally built tag for build-only services.
func (d *DockerAdapter) imageRef(service string, def *model.ServiceDefinition) string {
	if def.Image != "" {
		return def.Image
	}
	return ContainerName(d.pod, service) + ":latest"
}

// portConfig translates pod file port mappings into the SDK's exposed-port
// set and host binding map.
func portConfig(ports []model.PortMapping) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}

	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for _, pm := range ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(pm.ContainerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid container port %d: %w", pm.ContainerPort, err)
		}
		exposed[port] = struct{}{}

		binding := nat.PortBinding{}
		if pm.HostPort > 0 {
			binding.HostPort = strconv.Itoa(pm.HostPort)
		}
		bindings[port] = append(bindings[port], binding)
	}
	return exposed, bindings, nil
}

// runDocker executes the docker CLI with the given arguments, capturing
// output. A non-zero exit from docker is an operation failure (returned in
// the Result), not an infrastructure error.
func (d *DockerAdapter) runDocker(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = 1
	return res, fmt.Errorf("docker %v: %w", args, err)
}

package runtime

import (
	"context"
	"io"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Path where the disk image is bind-mounted inside the preloader.
const ImageMountPath = "/img/balena.img"

// Options for starting a preloader container.
type StartOptions struct {
	Ref    string    // Image reference to run, already pulled.
	Image  string    // Host path of the disk image to bind-mount.
	Stdin  io.Reader // Stream driving the task's stdin, or nil.
	Stdout io.Writer // Stream receiving the task's stdout, or nil.
	Stderr io.Writer // Stream receiving the task's stderr, or nil.
}

// A running preloader container backed by containerd.
type Container struct {
	client   *containerd.Client           // Containerd client for managing the container.
	id       string                       // Unique identifier, used as the containerd container ID.
	platform string                       // OCI platform (e.g., "linux/amd64").
	exitC    <-chan containerd.ExitStatus // Receives the task's exit status.
}

// Returns a fresh container identifier.
//
// IDs are random so concurrent preloads on one host never collide.
func newContainerID() string {
	return "preload-" + uuid.NewString()
}

// Returns the containerd container ID.
func (c *Container) ID() string {
	return c.id
}

// Returns a channel that receives the task's exit status when the
// container's process ends.
func (c *Container) Wait() <-chan containerd.ExitStatus {
	return c.exitC
}

// Removes the container and its resources.
//
// Any running task is killed and the container is removed from containerd
// along with its snapshot. Destroying a container that is already gone is
// not an error; a partial removal is.
func (c *Container) Destroy(ctx context.Context) error {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return wrap(err)
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		return wrap(err)
	}

	slog.Debug("container destroyed", "id", c.id)
	return nil
}

// Creates the containerd container with the preloader configuration.
//
// The container runs privileged with all host devices exposed so the
// preloader can attach loop devices to the disk image, and shares the host
// network namespace and resolv.conf so registry and API traffic need no
// network setup. The disk image is bind-mounted read-write at
// [ImageMountPath].
func (c *Container) create(ctx context.Context, image containerd.Image, opts StartOptions) (containerd.Container, error) {
	mounts := []specs.Mount{
		{
			Destination: ImageMountPath,
			Type:        "bind",
			Source:      opts.Image,
			Options:     []string{"rbind", "rw"},
		},
	}

	return c.client.NewContainer(ctx, c.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(snapshotter),
		containerd.WithNewSnapshot(c.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(
			oci.WithDefaultSpecForPlatform(c.platform),
			oci.WithImageConfig(image),
			oci.WithPrivileged,
			oci.WithAllDevicesAllowed,
			oci.WithHostDevices,
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithMounts(mounts),
		),
	)
}

// Starts the container's task with the configured streams attached.
//
// The task runs the image's own entrypoint. When a stdin stream is given,
// the task's stdin is explicitly closed once the stream returns EOF so the
// process observes end of input; the containerd shim holds both ends of the
// stdin FIFO open and will not propagate EOF on its own.
func (c *Container) startTask(ctx context.Context, ctr containerd.Container, opts StartOptions) error {
	stdin := opts.Stdin
	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.done
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	task, err := ctr.NewTask(ctx, cio.NewCreator(cio.WithStreams(stdin, stdout, stderr)))
	if err != nil {
		return err
	}

	exitC, err := task.Wait(ctx)
	if err != nil {
		task.Delete(ctx)
		return err
	}

	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}

	if stdinDone != nil {
		go func() {
			<-stdinDone
			task.CloseIO(ctx, containerd.WithStdinCloser)
		}()
	}

	c.exitC = exitC
	return nil
}

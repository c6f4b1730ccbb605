package runtime

import (
	"context"
	"log/slog"
	goruntime "runtime"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/platforms"
	"github.com/distribution/reference"
)

const (

	// Default containerd socket address.
	DefaultAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace scoping preloader images and containers.
	DefaultNamespace = "balena-preload"

	// Snapshotter used for container filesystems. The preloader must run
	// privileged (loop devices, mount(2)) and therefore as root, so the
	// in-kernel overlayfs is available.
	snapshotter = "overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client *containerd.Client // Containerd client for managing containers and images.
}

// Creates a runtime connected to the containerd socket at the given address.
//
// An empty address falls back to [DefaultAddress] and an empty namespace to
// [DefaultNamespace]. The namespace scopes all containerd operations. The
// runtime must be closed when no longer needed.
func New(address, namespace string) (*Runtime, error) {
	if address == "" {
		address = DefaultAddress
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, wrap(err)
	}
	return &Runtime{client: client}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Pulls an image from its registry and unpacks it for the host platform.
//
// The ref is normalized to a fully qualified reference (registry and tag
// filled in when missing) before pulling. Pulling an image that is already
// present is cheap since containerd skips blobs it has. Returns the
// normalized reference.
func (rt *Runtime) Pull(ctx context.Context, ref string) (string, error) {
	full, err := normalizeRef(ref)
	if err != nil {
		return "", wrapf("invalid image reference %q: %v", ref, err)
	}

	slog.Info("pulling image", "ref", full)

	p, err := platforms.Parse(defaultPlatform())
	if err != nil {
		return "", wrap(err)
	}

	_, err = rt.client.Pull(ctx, full,
		containerd.WithPlatformMatcher(platforms.Only(p)),
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(snapshotter),
	)
	if err != nil {
		return "", wrap(err)
	}

	slog.Debug("image pulled", "ref", full)
	return full, nil
}

// Starts a privileged preloader container with its stdio attached.
//
// The image must have been pulled already. The container runs the image's
// own entrypoint; the caller drives it through the attached streams. On
// any failure the partially created container is removed.
func (rt *Runtime) StartPreloader(ctx context.Context, opts StartOptions) (*Container, error) {
	c := &Container{
		client:   rt.client,
		id:       newContainerID(),
		platform: defaultPlatform(),
	}

	image, err := rt.resolveImage(ctx, opts.Ref, c.platform)
	if err != nil {
		return nil, wrap(err)
	}

	ctr, err := c.create(ctx, image, opts)
	if err != nil {
		return nil, wrap(err)
	}

	if err := c.startTask(ctx, ctr, opts); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, wrap(err)
	}

	slog.Debug("preloader container started", "id", c.id, "image", opts.Ref)

	return c, nil
}

// Looks up a pulled image and selects the manifest for the given platform.
//
// Multi-platform images contain manifests for multiple architectures. This
// method selects one, so that subsequent operations target the correct
// architecture.
func (rt *Runtime) resolveImage(ctx context.Context, ref, platform string) (containerd.Image, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Normalizes an image reference to its fully qualified form.
//
// Shorthand references get the default registry and tag filled in, e.g.
// "balena/balena-preload" becomes "docker.io/balena/balena-preload:latest".
func normalizeRef(ref string) (string, error) {
	named, err := reference.ParseDockerRef(ref)
	if err != nil {
		return "", err
	}
	return named.String(), nil
}

// Returns the default OCI platform for the host architecture.
func defaultPlatform() string {
	return "linux/" + goruntime.GOARCH
}

// Package runtime manages the preloader container backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides image pulling
// and preloader container lifecycle. The preloader image is pulled from its
// registry, unpacked for the host platform, and started as a privileged
// container with the target disk image bind-mounted and its stdio attached
// to the caller's protocol streams.
//
// Auxiliary commands can be executed inside the running container and host
// files can be copied in as tar streams. When the preload is over the
// container must be destroyed to release its snapshot and task resources.
//
// Example usage:
//
//	rt, err := runtime.New(runtime.DefaultAddress, runtime.DefaultNamespace)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ref, err := rt.Pull(ctx, "balena/balena-preload:latest")
//	if err != nil {
//	    return err
//	}
//
//	ctr, err := rt.StartPreloader(ctx, runtime.StartOptions{
//	    Ref:    ref,
//	    Image:  "/data/balena.img",
//	    Stdin:  commands,
//	    Stdout: events,
//	})
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
package runtime

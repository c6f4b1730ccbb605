package preloader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/balena-io/resin-preload/internal"
	"github.com/balena-io/resin-preload/internal/api"
	"github.com/balena-io/resin-preload/internal/fault"
	"github.com/balena-io/resin-preload/internal/options"
	"github.com/balena-io/resin-preload/internal/runtime"
)

const (

	// Repository of the preloader image.
	preloaderRepo = "balena/balena-preload"

	// How long to wait for the task's exit status after its output ends.
	exitStatusWait = 2 * time.Second
)

// Consumes progress telemetry emitted by the preloader.
//
// [progress.Router] satisfies this interface.
type Events interface {
	Progress(name string, percentage int)
	Spinner(name, action string)
}

// Drives the preloader container through its prepare, preload, and cleanup
// phases.
//
// A Preloader is owned by exactly one session: Prepare must complete
// successfully before Preload, and Cleanup must run exactly once
// regardless of outcome. The session controller guarantees both.
type Preloader struct {
	api    *api.Client      // API client for application and release lookups.
	rt     *runtime.Runtime // Container runtime hosting the preloader.
	cfg    options.Config   // Run configuration.
	events Events           // Sink for progress and spinner telemetry.

	ctr     *runtime.Container // Preloader container, nil until Prepare starts it.
	cmdW    io.WriteCloser     // Writes protocol commands to the container's stdin.
	scanner *bufio.Scanner     // Reads protocol lines from the container's stdout.

	app     *api.Application // Fetched during Prepare.
	release *api.Release     // Resolved during Prepare.
	info    *imageInfo       // Reported by the preloader during Prepare.
}

// Creates a preloader bound to one run's clients and configuration.
func New(client *api.Client, rt *runtime.Runtime, cfg options.Config, events Events) *Preloader {
	return &Preloader{
		api:    client,
		rt:     rt,
		cfg:    cfg,
		events: events,
	}
}

// Runs the preparation phase.
//
// Brings up the privileged preloader container with the disk image
// attached while fetching the application and resolving the commit from
// the API, then verifies architecture compatibility and copies configured
// extras (splash image, certificates) into the container. Recognized
// problems (missing application, unknown commit, architecture mismatch,
// commit already preloaded) are domain faults.
func (p *Preloader) Prepare(ctx context.Context) error {

	// Bringing up the container and resolving the preload target via the
	// API are independent; overlap them. The two paths touch disjoint
	// Preloader fields.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.startPreloader(gctx) })
	g.Go(func() error { return p.resolveTarget(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	for _, build := range p.info.PreloadedBuilds {
		if build == p.release.Commit {
			return fault.Domainf("commit %s is already preloaded in this image", shortCommit(p.release.Commit))
		}
	}

	if !p.cfg.DontCheckArch && !archSupported(p.info.Arch, p.app.Arch) {
		return fault.Domainf("architecture mismatch: image is %s, application %s is %s",
			p.info.Arch, p.app.Name, p.app.Arch)
	}

	if p.cfg.SplashImage != "" {
		if err := p.copySplash(ctx); err != nil {
			return err
		}
	}

	if len(p.cfg.Certificates) > 0 {
		if err := p.copyCertificates(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Pulls the preloader image, starts the container, and performs the
// image-info handshake.
func (p *Preloader) startPreloader(ctx context.Context) error {
	ref, err := p.rt.Pull(ctx, p.imageRef())
	if err != nil {
		return err
	}

	if dgst, err := p.rt.ImageDigest(ctx, ref); err == nil {
		slog.Debug("preloader image pulled", "ref", ref, "digest", dgst)
	}

	config, err := p.rt.ImageConfig(ctx, ref)
	if err != nil {
		return err
	}
	if len(config.Config.Entrypoint) == 0 && len(config.Config.Cmd) == 0 {
		return fault.Domainf("preloader image %s has no entrypoint", ref)
	}

	if err := p.start(ctx, ref); err != nil {
		return err
	}

	var info imageInfo
	if err := p.command(ctx, cmdGetImageInfo, nil, &info); err != nil {
		return err
	}
	p.info = &info
	slog.Info("image opened",
		"device_type", info.DeviceType,
		"arch", info.Arch,
		"supervisor", info.SupervisorVersion,
	)

	return nil
}

// Fetches the application and resolves the commit to preload.
func (p *Preloader) resolveTarget(ctx context.Context) error {
	app, err := p.api.Application(ctx, p.cfg.AppID)
	if err != nil {
		return err
	}
	p.app = app

	release, err := p.api.ResolveCommit(ctx, p.cfg.AppID, p.cfg.CommitRef())
	if err != nil {
		return err
	}
	p.release = release
	slog.Info("release resolved", "app", app.Name, "commit", shortCommit(release.Commit))

	return nil
}

// Runs the preload phase.
//
// Sends the preload command and consumes telemetry until the preloader
// reports the terminal result. This is the dominant-cost phase; most
// progress events arrive here.
func (p *Preloader) Preload(ctx context.Context) error {
	slog.Info("preloading", "app", p.app.Name, "commit", shortCommit(p.release.Commit))

	params := preloadParams{
		AppID:  p.cfg.AppID,
		Commit: p.release.Commit,
	}
	if p.cfg.SplashImage != "" {
		params.SplashImage = splashPath
	}
	if err := p.command(ctx, cmdPreload, params, nil); err != nil {
		return err
	}

	slog.Info("preload complete", "image", p.cfg.Image)
	return nil
}

// Releases the resources acquired by Prepare.
//
// Closes the command stream and destroys the preloader container. Safe to
// call when preparation never started or failed partway; destroying an
// already-removed container is tolerated. Not idempotent: the session
// controller ensures exactly one invocation.
func (p *Preloader) Cleanup(ctx context.Context) error {
	if p.cmdW != nil {
		p.cmdW.Close()
	}

	if p.ctr == nil {
		return nil
	}

	slog.Debug("destroying preloader container", "id", p.ctr.ID())
	return p.ctr.Destroy(ctx)
}

// Starts the preloader container with the protocol streams attached.
//
// Commands flow through a pipe into the task's stdin; protocol events flow
// from the task's stdout through a pipe into the line scanner. The task's
// stderr is forwarded to the debug log as it arrives.
func (p *Preloader) start(ctx context.Context, ref string) error {
	cmdR, cmdW := io.Pipe()
	outR, outW := io.Pipe()

	ctr, err := p.rt.StartPreloader(ctx, runtime.StartOptions{
		Ref:    ref,
		Image:  p.cfg.Image,
		Stdin:  cmdR,
		Stdout: outW,
		Stderr: &stderrLogger{},
	})
	if err != nil {
		cmdW.Close()
		outR.Close()
		return err
	}

	scanner := bufio.NewScanner(outR)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	p.ctr = ctr
	p.cmdW = cmdW
	p.scanner = scanner
	return nil
}

// Sends a command and consumes events until its result arrives.
//
// Progress and spinner events received while waiting are dispatched to the
// events sink. An error event terminates the command with a domain fault
// carrying the preloader's message. When result is non-nil the result
// payload is decoded into it. Unknown and malformed lines are logged and
// skipped.
func (p *Preloader) command(ctx context.Context, name string, params, result any) error {
	line, err := encodeRequest(name, params)
	if err != nil {
		return err
	}
	if _, err := p.cmdW.Write(line); err != nil {
		return fmt.Errorf("sending %s: %w", name, err)
	}

	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw := bytes.TrimSpace(p.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		typ, payload, err := decodeLine(raw)
		if err != nil {
			slog.Debug("skipping malformed preloader line", "error", err)
			continue
		}

		switch typ {
		case typeProgress:
			ev, err := decodePayload[progressEvent](payload)
			if err != nil {
				slog.Debug("skipping malformed progress event", "error", err)
				continue
			}
			p.events.Progress(ev.Name, ev.Percentage)

		case typeSpinner:
			ev, err := decodePayload[spinnerEvent](payload)
			if err != nil {
				slog.Debug("skipping malformed spinner event", "error", err)
				continue
			}
			p.events.Spinner(ev.Name, ev.Action)

		case typeError:
			ev, err := decodePayload[errorEvent](payload)
			if err != nil {
				return fmt.Errorf("%s failed with undecodable error event: %w", name, err)
			}
			return fault.Domainf("%s", ev.Message)

		case typeResult:
			if result == nil {
				return nil
			}
			ev, err := decodePayload[resultEvent](payload)
			if err != nil {
				return err
			}
			return json.Unmarshal(ev.Result, result)

		default:
			slog.Debug("skipping unknown preloader event", "type", typ)
		}
	}

	if err := p.scanner.Err(); err != nil {
		return fmt.Errorf("reading preloader output: %w", err)
	}
	return p.exitError(name)
}

// Returns a descriptive error after the preloader closed its output
// without answering a command.
//
// The task's exit status usually arrives moments after the stream ends;
// wait briefly for it so the error can carry the exit code.
func (p *Preloader) exitError(command string) error {
	if p.ctr == nil {
		return errors.New("preloader closed its output stream")
	}

	select {
	case status := <-p.ctr.Wait():
		code, _, err := status.Result()
		if err != nil {
			return fmt.Errorf("preloader exited during %s: %w", command, err)
		}
		return fmt.Errorf("preloader exited with code %d during %s", code, command)
	case <-time.After(exitStatusWait):
		return fmt.Errorf("preloader closed its output stream during %s", command)
	}
}

// Returns the preloader image reference for this run.
//
// The tag tracks the tool version so tool and preloader stay in step;
// local builds use latest. The PRELOADER_IMAGE environment variable
// overrides the full reference.
func (p *Preloader) imageRef() string {
	if p.cfg.PreloaderImage != "" {
		return p.cfg.PreloaderImage
	}
	if internal.IsLocal() {
		return preloaderRepo + ":latest"
	}
	return preloaderRepo + ":" + internal.Version()
}

// Shortens a commit hash for display.
func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// Forwards the preloader's stderr lines to the debug log.
type stderrLogger struct {
	buf []byte
}

func (w *stderrLogger) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:i], "\r")
		if len(line) > 0 {
			slog.Debug("preloader stderr", "line", string(line))
		}
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

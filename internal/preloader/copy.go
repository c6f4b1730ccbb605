package preloader

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

const (

	// Where the splash image lands inside the preloader container.
	splashPath = "/input/splash.png"

	// Where extra CA certificates land inside the preloader container, so
	// its registry and API traffic trusts them.
	certsDir = "/etc/ssl/certs"
)

// Copies the configured splash image into the preloader container.
//
// The preload command later points the preloader at the copied file.
func (p *Preloader) copySplash(ctx context.Context) error {
	slog.Debug("copying splash image", "src", p.cfg.SplashImage)

	if err := p.ctr.MkdirAll(ctx, path.Dir(splashPath)); err != nil {
		return fmt.Errorf("copying splash image: %w", err)
	}
	if err := p.copyFile(ctx, p.cfg.SplashImage, path.Base(splashPath), path.Dir(splashPath)); err != nil {
		return fmt.Errorf("copying splash image: %w", err)
	}
	return nil
}

// Copies the configured extra CA certificates into the preloader
// container's certificate directory.
func (p *Preloader) copyCertificates(ctx context.Context) error {
	for _, cert := range p.cfg.Certificates {
		slog.Debug("copying certificate", "src", cert)

		if err := p.copyFile(ctx, cert, filepath.Base(cert), certsDir); err != nil {
			return fmt.Errorf("copying certificate %s: %w", cert, err)
		}
	}
	return nil
}

// Streams a single host file into a directory of the preloader container.
//
// The file travels as a one-entry tar archive piped to the container's
// extract exec; nothing is buffered on the host.
func (p *Preloader) copyFile(ctx context.Context, hostPath, name, destDir string) error {
	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)
		err := writeFileToTar(tw, hostPath, name)
		tw.Close()
		pw.CloseWithError(err)
	}()

	return p.ctr.CopyTo(ctx, pr, destDir)
}

// Writes a single file to a tar writer with the given archive name.
func writeFileToTar(tw *tar.Writer, hostPath, name string) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

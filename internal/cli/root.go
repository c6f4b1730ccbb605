package cli

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"

	"github.com/balena-io/resin-preload/internal"
	"github.com/balena-io/resin-preload/internal/options"
)

// Flags of the balena-preload command.
//
// Every preload option has an environment-variable fallback; an explicit
// flag always wins over the environment.
type Flags struct {
	App            int              `env:"APP_ID" placeholder:"ID" help:"Application identifier."`
	Img            string           `env:"IMAGE" placeholder:"PATH" help:"Path to the disk image to preload."`
	APIToken       string           `name:"api-token" env:"API_TOKEN" help:"Session token for API authentication."`
	APIKey         string           `name:"api-key" env:"API_KEY" help:"API key for API authentication."`
	Commit         string           `env:"COMMIT" help:"Commit to preload (default: latest successful release)."`
	SplashImage    string           `env:"SPLASH_IMAGE" placeholder:"PATH" help:"Splash screen image to replace in the preloaded image."`
	DontCheckArch  bool             `help:"Disable the architecture compatibility check."`
	AddCertificate []string         `name:"add-certificate" placeholder:"PATH" help:"Extra CA certificate (PEM) to trust; repeatable."`
	Containerd     string           `env:"CONTAINERD_ADDRESS" placeholder:"PATH" help:"Containerd socket address."`
	PreloaderImage string           `env:"PRELOADER_IMAGE" hidden:""`
	Quiet          bool             `short:"q" help:"Suppress informational output."`
	Debug          bool             `short:"d" help:"Enable debug output."`
	Version        kong.VersionFlag `short:"v" help:"Show version information."`
}

// Converts the parsed flags into the run configuration.
//
// Kong has already merged flags over environment variables for tagged
// fields. DONT_CHECK_ARCH is a presence-style variable ("yes" counts as
// set), which kong's bool parsing rejects, so it is merged by hand.
func (f Flags) Config() options.Config {
	return options.Config{
		AppID:             f.App,
		Image:             f.Img,
		APIToken:          f.APIToken,
		APIKey:            f.APIKey,
		Commit:            f.Commit,
		SplashImage:       f.SplashImage,
		DontCheckArch:     f.DontCheckArch || options.EnvFlag("DONT_CHECK_ARCH"),
		Certificates:      f.AddCertificate,
		ContainerdAddress: f.Containerd,
		PreloaderImage:    f.PreloaderImage,
	}
}

// The parsed command line.
var RootCmd Flags

// Parses arguments, configures logging, and runs the preload.
//
// An incomplete configuration prints the usage text and returns a usage
// fault; provisioning is never attempted in that case.
func Execute() error {
	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Injects application containers into a balenaOS disk image,\nso devices flashed from it boot straight into the application."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
	)

	configureLogger()

	cfg := RootCmd.Config()
	if err := cfg.Validate(); err != nil {
		kongCtx.PrintUsage(false)
		return err
	}

	return run(cfg)
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	logger, ok := slog.Default().Handler().(*charmlog.Logger)
	if !ok {
		return // Not a charm logger, nothing to configure
	}

	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()

	switch {
	case debug:
		logger.SetLevel(charmlog.DebugLevel)
	case quiet:
		logger.SetLevel(charmlog.WarnLevel)
	default:
		logger.SetLevel(charmlog.InfoLevel)
	}
	logger.SetOutput(os.Stderr)
}

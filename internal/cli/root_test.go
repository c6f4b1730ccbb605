package cli

import (
	"testing"

	"github.com/alecthomas/kong"
)

// Parses args into a fresh Flags value without touching the process.
func parseFlags(t *testing.T, args ...string) Flags {
	t.Helper()

	var flags Flags
	parser, err := kong.New(&flags, kong.Vars{"version": "test"})
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return flags
}

func TestFlagWinsOverEnv(t *testing.T) {
	t.Setenv("APP_ID", "111")
	t.Setenv("IMAGE", "/env/image.img")
	t.Setenv("API_TOKEN", "env-token")

	cfg := parseFlags(t,
		"--app", "222",
		"--img", "/flag/image.img",
		"--api-token", "flag-token",
	).Config()

	if cfg.AppID != 222 {
		t.Fatalf("AppID = %d, want 222 (flag over env)", cfg.AppID)
	}
	if cfg.Image != "/flag/image.img" {
		t.Fatalf("Image = %q, want flag value", cfg.Image)
	}
	if cfg.APIToken != "flag-token" {
		t.Fatalf("APIToken = %q, want flag value", cfg.APIToken)
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("APP_ID", "123456")
	t.Setenv("IMAGE", "/tmp/x.img")
	t.Setenv("API_KEY", "k")
	t.Setenv("COMMIT", "deadbeef")

	cfg := parseFlags(t).Config()

	if cfg.AppID != 123456 {
		t.Fatalf("AppID = %d, want 123456 from env", cfg.AppID)
	}
	if cfg.Image != "/tmp/x.img" {
		t.Fatalf("Image = %q, want env value", cfg.Image)
	}
	if cfg.APIKey != "k" {
		t.Fatalf("APIKey = %q, want env value", cfg.APIKey)
	}
	if cfg.Commit != "deadbeef" {
		t.Fatalf("Commit = %q, want env value", cfg.Commit)
	}
}

func TestDontCheckArchPresenceEnv(t *testing.T) {
	// The original tool treats DONT_CHECK_ARCH as presence-style: values
	// like "yes" count as set even though they are not parseable bools.
	t.Setenv("DONT_CHECK_ARCH", "yes")

	cfg := parseFlags(t).Config()
	if !cfg.DontCheckArch {
		t.Fatal("DontCheckArch = false, want true from presence-style env")
	}
}

func TestRepeatableCertificateFlag(t *testing.T) {
	cfg := parseFlags(t,
		"--add-certificate", "/certs/a.pem",
		"--add-certificate", "/certs/b.pem",
	).Config()

	if len(cfg.Certificates) != 2 {
		t.Fatalf("len(Certificates) = %d, want 2", len(cfg.Certificates))
	}
	if cfg.Certificates[0] != "/certs/a.pem" || cfg.Certificates[1] != "/certs/b.pem" {
		t.Fatalf("Certificates = %v, want both paths in order", cfg.Certificates)
	}
}

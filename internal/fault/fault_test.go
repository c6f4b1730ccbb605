package fault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type codedError struct {
	code int
}

func (e *codedError) Error() string {
	return fmt.Sprintf("exited with code %d", e.code)
}

func (e *codedError) ExitCode() int {
	return e.code
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "nil",
			err:  nil,
			want: Unexpected,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: Unexpected,
		},
		{
			name: "usage fault",
			err:  Usagef("missing application id"),
			want: Usage,
		},
		{
			name: "domain fault",
			err:  Domainf("architecture mismatch"),
			want: Domain,
		},
		{
			name: "wrapped auth fault",
			err:  fmt.Errorf("running: %w", Wrap(Auth, errors.New("401"))),
			want: Auth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil",
			err:  nil,
			want: 0,
		},
		{
			name: "usage fault",
			err:  Usagef("missing application id"),
			want: 1,
		},
		{
			name: "domain fault",
			err:  Domainf("architecture mismatch"),
			want: 1,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: 1,
		},
		{
			name: "unexpected fault with embedded code",
			err:  &Fault{Code: 42, msg: "preloader exited"},
			want: 42,
		},
		{
			name: "error exposing an exit code",
			err:  fmt.Errorf("running preloader: %w", &codedError{code: 7}),
			want: 7,
		},
		{
			name: "domain fault wrapping a coded error",
			err:  Wrap(Domain, &codedError{code: 7}),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       string
		wantIssues bool
	}{
		{
			name: "domain fault prints message only",
			err:  Domainf("architecture mismatch: image is aarch64, application is amd64"),
			want: "Error: architecture mismatch: image is aarch64, application is amd64\n",
		},
		{
			name: "usage fault prints message only",
			err:  Usagef("missing credentials (--api-token or --api-key)"),
			want: "Error: missing credentials (--api-token or --api-key)\n",
		},
		{
			name:       "unexpected error prints detail",
			err:        fmt.Errorf("starting container: %w", errors.New("connection refused")),
			want:       "Unexpected error: starting container: connection refused\n",
			wantIssues: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Report(&buf, tt.err)

			out := buf.String()
			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("Report() = %q, want prefix %q", out, tt.want)
			}
			if got := strings.Contains(out, issuesURL); got != tt.wantIssues {
				t.Errorf("Report() issue pointer = %v, want %v", got, tt.wantIssues)
			}
		})
	}
}

func TestReportNil(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, nil)

	if buf.Len() != 0 {
		t.Errorf("Report(nil) wrote %q, want nothing", buf.String())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(Domain, nil); err != nil {
		t.Errorf("Wrap(Domain, nil) = %v, want nil", err)
	}
	if err := Wrapf(Auth, nil, "login failed"); err != nil {
		t.Errorf("Wrapf(Auth, nil) = %v, want nil", err)
	}
}

func TestFaultUnwrap(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := Wrapf(Auth, cause, "login failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped fault does not match its cause with errors.Is")
	}
	if got := err.Error(); got != "login failed: 401 unauthorized" {
		t.Errorf("Error() = %q", got)
	}
}

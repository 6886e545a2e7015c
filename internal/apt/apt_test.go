package apt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdrianChallinorOsiris/monitor/internal/command"
)

// mockRunner implements command.Runner for checker tests.
type mockRunner struct {
	runFunc func(ctx context.Context, name string, args ...string) (command.Result, error)
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	return m.runFunc(ctx, name, args...)
}

var _ command.Runner = (*mockRunner)(nil)

func Test_ParseBrief_Cases(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Status
		wantErr error
	}{
		{name: "typical", raw: "12;3", want: Status{Installable: "12", Security: "3"}},
		{name: "trailing newline", raw: "0;0\n", want: Status{Installable: "0", Security: "0"}},
		{name: "extra fields ignored", raw: "4;1;9", want: Status{Installable: "4", Security: "1"}},
		{name: "whitespace inside fields", raw: " 5 ; 2 ", want: Status{Installable: "5", Security: "2"}},
		{name: "single field", raw: "7", wantErr: ErrMalformedOutput},
		{name: "empty", raw: "", wantErr: ErrMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBrief(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseBrief() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBrief() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseBrief(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func Test_Status_String(t *testing.T) {
	got := Status{Installable: "12", Security: "3"}.String()
	if got != "Installable: 12 - Security: 3" {
		t.Errorf("String() = %q", got)
	}
}

func Test_Checker_Verbose_Cases(t *testing.T) {
	const report = "12 updates can be applied immediately.\n3 of these updates are standard security updates.\n"

	tests := []struct {
		name        string
		runFunc     func(ctx context.Context, name string, args ...string) (command.Result, error)
		want        string
		wantErr     error
		errContains string
	}{
		{
			name: "stdout returned verbatim",
			runFunc: func(ctx context.Context, name string, args ...string) (command.Result, error) {
				if len(args) != 1 || args[0] != "--human-readable" {
					return command.Result{}, errors.New("expected --human-readable")
				}
				return command.Result{Stdout: report}, nil
			},
			want: report,
		},
		{
			name: "missing binary",
			runFunc: func(ctx context.Context, name string, args ...string) (command.Result, error) {
				return command.Result{}, command.ErrNotFound
			},
			wantErr: ErrNotAvailable,
		},
		{
			name: "non-zero exit",
			runFunc: func(ctx context.Context, name string, args ...string) (command.Result, error) {
				return command.Result{Stderr: "E: cache locked\n", ExitCode: 100}, nil
			},
			errContains: "status 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("", &mockRunner{runFunc: tt.runFunc})
			got, err := c.Verbose(context.Background())
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verbose() error = %v, want %v", err, tt.wantErr)
				}
			case tt.errContains != "":
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("Verbose() error = %v, want containing %q", err, tt.errContains)
				}
			default:
				if err != nil {
					t.Fatalf("Verbose() unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Verbose() = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func Test_Checker_Brief_Cases(t *testing.T) {
	tests := []struct {
		name    string
		result  command.Result
		err     error
		want    string
		wantErr error
	}{
		{name: "counts on stderr", result: command.Result{Stderr: "12;3"}, want: "Installable: 12 - Security: 3"},
		{name: "stdout is ignored", result: command.Result{Stdout: "99;99", Stderr: "0;0"}, want: "Installable: 0 - Security: 0"},
		{name: "malformed stderr", result: command.Result{Stderr: "oops"}, wantErr: ErrMalformedOutput},
		{name: "missing binary", err: command.ErrNotFound, wantErr: ErrNotAvailable},
		{name: "timeout", err: command.ErrTimeout, wantErr: command.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName string
			var gotArgs []string
			c := NewChecker("/opt/apt-check", &mockRunner{runFunc: func(ctx context.Context, name string, args ...string) (command.Result, error) {
				gotName, gotArgs = name, args
				return tt.result, tt.err
			}})
			st, err := c.Brief(context.Background())
			if gotName != "/opt/apt-check" {
				t.Errorf("ran %q, want /opt/apt-check", gotName)
			}
			if len(gotArgs) != 0 {
				t.Errorf("args = %v, want none", gotArgs)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Brief() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Brief() unexpected error: %v", err)
			}
			if st.String() != tt.want {
				t.Errorf("Brief() = %q, want %q", st.String(), tt.want)
			}
		})
	}
}

func Test_RebootRequired(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "reboot-required")

	if got := RebootRequired(marker); got != "" {
		t.Errorf("RebootRequired() without marker = %q, want empty", got)
	}

	if err := os.WriteFile(marker, []byte("*** System restart required ***\n"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if got := RebootRequired(marker); got != RebootRequiredText {
		t.Errorf("RebootRequired() with marker = %q, want %q", got, RebootRequiredText)
	}
}

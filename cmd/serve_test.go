package cmd

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/openmailtools/applemail-mcp/internal/gate"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "/Users/me/Downloads",
			expected: []string{"/Users/me/Downloads"},
		},
		{
			name:     "multiple values",
			input:    "/Users/me/Downloads,/tmp/mail",
			expected: []string{"/Users/me/Downloads", "/tmp/mail"},
		},
		{
			name:     "values with spaces around comma",
			input:    "/Users/me/Downloads, /tmp/mail",
			expected: []string{"/Users/me/Downloads", "/tmp/mail"},
		},
		{
			name:     "trailing comma",
			input:    "/Users/me/Downloads,/tmp/mail,",
			expected: []string{"/Users/me/Downloads", "/tmp/mail"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "/Users/me/Downloads,,/tmp/mail",
			expected: []string{"/Users/me/Downloads", "/tmp/mail"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestDefaultAuditLogPath(t *testing.T) {
	t.Setenv("HOME", "/Users/tester")

	path, err := defaultAuditLogPath()
	if err != nil {
		t.Fatalf("defaultAuditLogPath() error: %v", err)
	}
	if !strings.HasSuffix(path, ".config/applemail-mcp/audit.log") {
		t.Errorf("defaultAuditLogPath() = %q, want suffix .config/applemail-mcp/audit.log", path)
	}
}

func TestNewServeCmdDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag string
		want string
	}{
		{"transport", "stdio"},
		{"http-addr", ":8080"},
		{"yolo", "false"},
		{"skip-confirmation", "false"},
		{"script-timeout", "1m0s"},
		{"max-batch", "100"},
		{"destructive-rate", "10"},
		{"metrics-enabled", "true"},
		{"metrics-addr", ":9090"},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag --%s not registered", tt.flag)
			continue
		}
		if f.DefValue != tt.want {
			t.Errorf("flag --%s default = %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}

func newQuietGate(cfg ServeConfig) *gate.Gate {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newGate(cfg, nil, logger)
}

func TestNewGate_YoloKeepsConfirmationHandshake(t *testing.T) {
	g := newQuietGate(ServeConfig{Yolo: true, MaxBatch: 100, DestructiveRate: 10})

	req := gate.NewToolRequest(gate.OpDeleteMessages, map[string]any{
		"ids":       []any{float64(101), float64(102)},
		"permanent": true,
	})
	_, decision, err := g.Check(req)

	if decision.Effect != gate.EffectRequiresConfirmation {
		t.Fatalf("decision = %q, want %q", decision.Effect, gate.EffectRequiresConfirmation)
	}
	if err == nil {
		t.Fatal("expected a confirmation-required error")
	}
	if decision.ConfirmToken == "" {
		t.Error("decision carries no confirmation token")
	}
}

func TestNewGate_SkipConfirmationBypassesHandshake(t *testing.T) {
	g := newQuietGate(ServeConfig{
		Yolo:             true,
		SkipConfirmation: true,
		MaxBatch:         100,
		DestructiveRate:  10,
	})

	req := gate.NewToolRequest(gate.OpDeleteMessages, map[string]any{
		"ids":       []any{float64(101), float64(102)},
		"permanent": true,
	})
	_, decision, err := g.Check(req)

	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if decision.Effect != gate.EffectAllow {
		t.Fatalf("decision = %q, want %q", decision.Effect, gate.EffectAllow)
	}
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seongjae6751/stream-module/internal/describe"
)

func TestValidateStreamFlags(t *testing.T) {
	tests := []struct {
		name      string
		interval  time.Duration
		maxFrames int
		quality   int
		maxWidth  int
		wantErr   bool
	}{
		{"defaults", 5 * time.Second, 0, 95, 0, false},
		{"limits", time.Millisecond, 10, 1, 640, false},
		{"max quality", time.Second, 0, 100, 0, false},
		{"zero interval", 0, 0, 95, 0, true},
		{"negative interval", -time.Second, 0, 95, 0, true},
		{"negative max frames", time.Second, -1, 95, 0, true},
		{"quality too low", time.Second, 0, 0, 0, true},
		{"quality too high", time.Second, 0, 101, 0, true},
		{"negative width", time.Second, 0, 95, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStreamFlags(tt.interval, tt.maxFrames, tt.quality, tt.maxWidth)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateStreamFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTarget(t *testing.T) {
	for _, s := range []int{0, 1, 3600, 90061} {
		if err := validateTarget(s); err != nil {
			t.Errorf("validateTarget(%d) = %v", s, err)
		}
	}
	if err := validateTarget(-1); err == nil {
		t.Error("expected error for negative target")
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider describe.Provider
		want     string
	}{
		{describe.ProviderGemini, "GEMINI_API_KEY"},
		{describe.ProviderOpenAI, "OPENAI_API_KEY"},
		{describe.ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{describe.Provider("other"), "API_KEY"},
	}

	for _, tt := range tests {
		if got := apiKeyEnvVar(tt.provider); got != tt.want {
			t.Errorf("apiKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"stream", "drone", "gps", "extract", "probe", "license"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestGPSCommand(t *testing.T) {
	dir := t.TempDir()
	track := strings.Join([]string{
		"1",
		"0:00:00,000 --> 0:00:00,033",
		"F/2.8, SS 1000, ISO 100, GPS (37.0, 127.0, 19), D 5m, H 20m",
		"",
		"2",
		"0:00:01,000 --> 0:00:01,033",
		"F/2.8, SS 1000, ISO 100, GPS (n/a, n/a, 19), D 5m, H 20m",
		"",
		"3",
		"0:00:02,000 --> 0:00:02,033",
		"F/2.8, SS 1000, ISO 100, GPS (37.5, 127.5, 19), D 5m, H 20m",
		"",
	}, "\n")
	path := filepath.Join(dir, "DJI_0001_subtitle.srt")
	if err := os.WriteFile(path, []byte(track), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"gps", path, "--time", "1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := Execute(); err != nil {
		t.Fatalf("gps command failed: %v", err)
	}

	got := strings.TrimSpace(out.String())
	if got != "37.25,127.25" {
		t.Errorf("gps output = %q, want %q", got, "37.25,127.25")
	}
}

func TestMissingEnvFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.srt")
	if err := os.WriteFile(path, []byte("1\n0:00:01,000\nGPS (37.0, 127.0)\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--env-file", filepath.Join(dir, "missing.env"), "gps", path, "-t", "1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		envFile = ""
	})

	err := Execute()
	if err == nil {
		t.Fatal("expected error for missing --env-file")
	}
	if !strings.Contains(err.Error(), "missing.env") {
		t.Errorf("error %q does not name the env file", err)
	}
	if out.Len() != 0 {
		t.Errorf("command ran despite config error: %q", out.String())
	}
}

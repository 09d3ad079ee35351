package ffmpeg

import (
	"errors"
	"testing"
)

func TestEnsureOverrideWins(t *testing.T) {
	want := BinaryPaths{FFmpeg: "/x/ffmpeg", FFprobe: "/x/ffprobe"}
	got, err := Ensure(want)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if got != want {
		t.Errorf("Ensure(%+v) = %+v", want, got)
	}
}

func TestToolName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ffmpeg", "ffmpeg"},
		{"FFMPEG.EXE", "ffmpeg"},
		{"ffprobe.exe", "ffprobe"},
		{"ffplay", ""},
		{"readme.txt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := toolName(tt.in); got != tt.want {
				t.Errorf("toolName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAssetForPlatform(t *testing.T) {
	name, err := assetForPlatform("linux", "amd64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "ffmpeg-6.1-linux-64.zip" {
		t.Errorf("unexpected asset %q", name)
	}

	if _, err := assetForPlatform("plan9", "386"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}

func TestYtDlpPath(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	t.Setenv("STREAMCAP_YTDLP_PATH", "")

	lookPath = func(name string) (string, error) {
		if name == "youtube-dl" {
			return "/usr/bin/youtube-dl", nil
		}
		return "", errors.New("not found")
	}

	got, err := YtDlpPath("")
	if err != nil {
		t.Fatalf("YtDlpPath returned error: %v", err)
	}
	if got != "/usr/bin/youtube-dl" {
		t.Errorf("expected fallback to youtube-dl, got %q", got)
	}

	got, _ = YtDlpPath("/opt/yt-dlp")
	if got != "/opt/yt-dlp" {
		t.Errorf("override ignored, got %q", got)
	}

	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if _, err := YtDlpPath(""); err == nil {
		t.Error("expected error when yt-dlp is missing")
	}
}

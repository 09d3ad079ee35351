package stream

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDirect(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"rtsp://192.168.0.10:554/stream1", true},
		{"rtmp://live.example/app/key", true},
		{"https://cdn.example/hls/live.m3u8", true},
		{"https://cdn.example/hls/live.m3u8?token=abc", true},
		{"https://cdn.example/clip.MP4", true},
		{"/dev/video0", true},
		{"footage/DJI_0001.MP4", true},
		{"https://www.youtube.com/watch?v=abc123", false},
		{"https://www.twitch.tv/somechannel", false},
		{"youtube.com/watch?v=abc123", false},
		{"www.youtube.com/watch?v=abc123", false},
		{"twitch.tv/somechannel", false},
		{"clip.mp4", true},
		{"./recordings/clip.mkv", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDirect(tt.in))
		})
	}
}

func TestIsDirect_ExistingFileWithDottedName(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("flight.2024.bin", []byte("x"), 0o644))

	assert.True(t, IsDirect("flight.2024.bin"))
	assert.False(t, IsDirect("flight.2025.bin"))
}

func TestAutoResolver_HostWithoutScheme(t *testing.T) {
	fallback := &fakeResolver{url: "https://manifest.googlevideo.com/live.m3u8"}

	got, err := AutoResolver{Fallback: fallback}.Resolve(context.Background(), "youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://manifest.googlevideo.com/live.m3u8", got)
	assert.Equal(t, []string{"youtube.com/watch?v=abc"}, fallback.calls)
}

func TestDirectResolver(t *testing.T) {
	got, err := DirectResolver{}.Resolve(context.Background(), "rtsp://cam/live")
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam/live", got)

	_, err = DirectResolver{}.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.ErrorIs(t, err, ErrNoStream)
}

func TestAutoResolver(t *testing.T) {
	fallback := &fakeResolver{url: "https://manifest.googlevideo.com/live.m3u8"}
	auto := AutoResolver{Fallback: fallback}

	got, err := auto.Resolve(context.Background(), "rtsp://cam/live")
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam/live", got)
	assert.Empty(t, fallback.calls)

	got, err = auto.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://manifest.googlevideo.com/live.m3u8", got)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc"}, fallback.calls)

	_, err = AutoResolver{}.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.ErrorIs(t, err, ErrNoStream)
}

func TestYtDlpResolver(t *testing.T) {
	orig := execCommand
	t.Cleanup(func() { execCommand = orig })

	var gotArgs []string
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return helperCommand(ctx, "resolve")
	}

	r := NewYtDlpResolver("/usr/local/bin/yt-dlp", nil)
	got, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)

	assert.Equal(t, "https://manifest.googlevideo.com/api/manifest/hls_playlist/index.m3u8", got)
	assert.Equal(t, "/usr/local/bin/yt-dlp", gotArgs[0])
	assert.Contains(t, gotArgs, "best")
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", gotArgs[len(gotArgs)-1])
}

func TestYtDlpResolver_Failures(t *testing.T) {
	orig := execCommand
	t.Cleanup(func() { execCommand = orig })

	for _, mode := range []string{"fail", "empty"} {
		t.Run(mode, func(t *testing.T) {
			execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
				return helperCommand(ctx, mode)
			}

			_, err := NewYtDlpResolver("yt-dlp", nil).Resolve(context.Background(), "https://www.youtube.com/watch?v=offline")
			require.ErrorIs(t, err, ErrNoStream)
		})
	}
}

func helperCommand(ctx context.Context, mode string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", mode)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

// not a real test: the body of the fake yt-dlp process
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "resolve":
		fmt.Println("https://manifest.googlevideo.com/api/manifest/hls_playlist/index.m3u8")
	case "empty":
		fmt.Println("")
	case "fail":
		fmt.Fprintln(os.Stderr, "ERROR: This live event has ended.")
		os.Exit(1)
	}
}

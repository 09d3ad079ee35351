package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	ffmpegReleaseVersion = "6.1"
	ffmpegReleaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

// locations of the external media tools
type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	discoverOnce sync.Once
	discoverErr  error
	discovered   BinaryPaths

	// swapped in tests
	lookPath = exec.LookPath
)

// Ensure returns usable ffmpeg/ffprobe paths. Non-empty fields of override win;
// the rest come from STREAMCAP_FFMPEG_PATH / STREAMCAP_FFPROBE_PATH, $PATH, or a
// cached download of a static build.
func Ensure(override BinaryPaths) (BinaryPaths, error) {
	if override.FFmpeg != "" && override.FFprobe != "" {
		return override, nil
	}

	discoverOnce.Do(func() {
		discovered, discoverErr = discover()
	})
	if discoverErr != nil {
		return BinaryPaths{}, discoverErr
	}

	paths := discovered
	if override.FFmpeg != "" {
		paths.FFmpeg = override.FFmpeg
	}
	if override.FFprobe != "" {
		paths.FFprobe = override.FFprobe
	}
	return paths, nil
}

// YtDlpPath finds the yt-dlp executable used for stream resolution.
func YtDlpPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if p := os.Getenv("STREAMCAP_YTDLP_PATH"); p != "" {
		return p, nil
	}
	for _, name := range []string{"yt-dlp", "youtube-dl"} {
		if found, err := lookPath(name); err == nil {
			return found, nil
		}
	}
	return "", errors.New("yt-dlp not found: install it or set STREAMCAP_YTDLP_PATH")
}

func discover() (BinaryPaths, error) {
	ffmpegPath := os.Getenv("STREAMCAP_FFMPEG_PATH")
	ffprobePath := os.Getenv("STREAMCAP_FFPROBE_PATH")

	if ffmpegPath == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}
	if ffmpegPath != "" && ffprobePath != "" {
		return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
	}

	installDir, err := cacheDir()
	if err != nil {
		return BinaryPaths{}, err
	}
	cached := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}

	if !binariesExist(cached) {
		assetName, err := assetForPlatform(runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return BinaryPaths{}, err
		}
		if err := os.MkdirAll(installDir, 0o755); err != nil {
			return BinaryPaths{}, fmt.Errorf("create ffmpeg cache dir: %w", err)
		}
		if err := downloadAndExtract(assetName, installDir); err != nil {
			return BinaryPaths{}, err
		}
		if !binariesExist(cached) {
			return BinaryPaths{}, errors.New("ffmpeg binaries not found after extraction")
		}
		if runtime.GOOS != "windows" {
			for _, p := range []string{cached.FFmpeg, cached.FFprobe} {
				if err := os.Chmod(p, 0o755); err != nil {
					return BinaryPaths{}, fmt.Errorf("chmod %s: %w", filepath.Base(p), err)
				}
			}
		}
	}

	// keep whatever the environment or $PATH already provided
	if ffmpegPath == "" {
		ffmpegPath = cached.FFmpeg
	}
	if ffprobePath == "" {
		ffprobePath = cached.FFprobe
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	if base == "" {
		return "", errors.New("no cache directory available for ffmpeg download")
	}
	return filepath.Join(
		base,
		"streamcap",
		"ffmpeg",
		ffmpegReleaseVersion,
		runtime.GOOS,
		runtime.GOARCH,
	), nil
}

func assetForPlatform(goos, goarch string) (string, error) {
	switch {
	case goos == "linux" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-64.zip", nil
	case goos == "linux" && goarch == "arm64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-linux-arm-64.zip", nil
	case goos == "darwin" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-macos-64.zip", nil
	case goos == "windows" && goarch == "amd64":
		return "ffmpeg-" + ffmpegReleaseVersion + "-win-64.zip", nil
	default:
		return "", fmt.Errorf("no prebuilt ffmpeg for %s/%s: install ffmpeg or set STREAMCAP_FFMPEG_PATH", goos, goarch)
	}
}

func downloadAndExtract(assetName, installDir string) error {
	url := fmt.Sprintf("%s/v%s/%s", ffmpegReleaseBaseURL, ffmpegReleaseVersion, assetName)
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download ffmpeg bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download ffmpeg bundle: unexpected status %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp("", "streamcap-ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := tmpFile.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := extractArchive(archivePath, installDir); err != nil {
		return fmt.Errorf("extract %s: %w", assetName, err)
	}
	return nil
}

func extractArchive(archivePath, installDir string) error {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open ffmpeg archive: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	found := map[string]bool{}
	for _, file := range zipReader.File {
		tool := toolName(filepath.Base(file.Name))
		if tool == "" {
			continue
		}
		dest := filepath.Join(installDir, tool+executableSuffix())
		if err := extractZipFile(file, dest); err != nil {
			return err
		}
		found[tool] = true
	}

	if !found["ffmpeg"] || !found["ffprobe"] {
		return errors.New("ffmpeg archive missing required binaries")
	}
	return nil
}

func extractZipFile(file *zip.File, dest string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open ffmpeg archive entry: %w", err)
	}
	defer func() { _ = reader.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	return nil
}

// maps an archive entry name to "ffmpeg", "ffprobe" or ""
func toolName(name string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")
	switch name {
	case "ffmpeg", "ffprobe":
		return name
	}
	return ""
}

func binariesExist(p BinaryPaths) bool {
	return fileExists(p.FFmpeg) && fileExists(p.FFprobe)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain/ports/adapter"
	derror "avatar-video-platform/internal/error"
)

// The provider stamps its watermark into a fixed bottom-right region. The
// crop trims that margin in source pixels, independent of output resolution;
// it matches the placement the provider has historically used and is not
// dimension-aware.
const (
	watermarkMarginWidth  = 150
	watermarkMarginHeight = 80
)

// Runner executes an external command and returns its combined output.
// Injectable so tests can run without ffmpeg installed.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var _ adapter.PostProcessor = (*WatermarkCleaner)(nil)

// WatermarkCleaner downloads the provider's raw asset to scratch storage and
// re-encodes it with the watermark margin cropped away. The raw scratch file
// is deleted on every path; the caller owns the returned processed file.
type WatermarkCleaner struct {
	scratchDir string
	ffmpegPath string
	client     *http.Client
	run        Runner
	log        *zerolog.Logger
}

func NewWatermarkCleaner(scratchDir, ffmpegPath string, logger *zerolog.Logger) *WatermarkCleaner {
	l := logger.With().Str("component", "WatermarkCleaner").Logger()
	return &WatermarkCleaner{
		scratchDir: scratchDir,
		ffmpegPath: ffmpegPath,
		client:     &http.Client{Timeout: 5 * time.Minute},
		run:        execRunner,
		log:        &l,
	}
}

// SetRunner replaces the command runner. Test hook.
func (c *WatermarkCleaner) SetRunner(run Runner) { c.run = run }

func (c *WatermarkCleaner) Clean(ctx context.Context, rawURL string) (string, error) {
	rawPath, err := c.download(ctx, rawURL)
	if err != nil {
		return "", &derror.PostProcessingError{Stage: "download", Err: err}
	}
	defer func() {
		if rmErr := os.Remove(rawPath); rmErr != nil && !os.IsNotExist(rmErr) {
			c.log.Warn().Err(rmErr).Str("path", rawPath).Msg("failed to remove raw scratch file")
		}
	}()

	out, err := os.CreateTemp(c.scratchDir, "avatar-clean-*.mp4")
	if err != nil {
		return "", &derror.PostProcessingError{Stage: "crop", Err: err}
	}
	outPath := out.Name()
	out.Close()

	filter := fmt.Sprintf("crop=iw-%d:ih-%d:0:0", watermarkMarginWidth, watermarkMarginHeight)
	output, err := c.run(ctx, c.ffmpegPath,
		"-y",
		"-i", rawPath,
		"-vf", filter,
		"-c:a", "copy",
		outPath,
	)
	if err != nil {
		os.Remove(outPath)
		return "", &derror.PostProcessingError{Stage: "crop", Err: fmt.Errorf("%w: %s", err, output)}
	}
	return outPath, nil
}

// download streams the asset to a scratch file without buffering it whole;
// raw sizes are unbounded a priori.
func (c *WatermarkCleaner) download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("asset download returned status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp(c.scratchDir, "avatar-raw-*.mp4")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"gopkg.in/vansante/go-ffprobe.v2"

	"mediahub/pkg/logger"
)

const (
	DefaultThumbnailOffset  = time.Second
	DefaultThumbnailMaxEdge = 640
	DefaultThumbnailTimeout = 30 * time.Second

	// ThumbnailFormat is the single encoding used for video previews.
	ThumbnailFormat = FormatWebP
)

var errEmptyFrame = errors.New("ffmpeg produced no frame")

// CommandRunner executes an external tool and returns its stdout. Only the
// ffmpeg frame grab goes through it.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

type ThumbnailerConfig struct {
	FFmpegPath  string
	FFprobePath string
	Offset      time.Duration
	MaxEdge     int
	Timeout     time.Duration
}

// ThumbnailResult reports the outcome of a preview extraction. Failures are
// described by Reason rather than returned as errors.
type ThumbnailResult struct {
	OK     bool
	Reason string
	Data   []byte
	Width  int
	Height int
	Format Format
}

func failedThumbnail(reason string, err error) ThumbnailResult {
	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	return ThumbnailResult{OK: false, Reason: reason}
}

// StagedVideo is an uploaded video written to local disk so ffprobe and
// ffmpeg can seek in it. Close removes the file.
type StagedVideo struct {
	Path    string
	cleanup func()
}

// NewStagedVideo wraps a file staged elsewhere; cleanup may be nil.
func NewStagedVideo(path string, cleanup func()) *StagedVideo {
	return &StagedVideo{Path: path, cleanup: cleanup}
}

func (v *StagedVideo) Close() {
	if v != nil && v.cleanup != nil {
		v.cleanup()
	}
}

// Thumbnailer derives metadata and a still preview from a staged video using
// ffprobe and ffmpeg.
type Thumbnailer struct {
	cfg     ThumbnailerConfig
	run     CommandRunner
	inspect Inspector
	logger  *logger.Logger
}

func NewThumbnailer(cfg ThumbnailerConfig, log *logger.Logger) *Thumbnailer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath != "" {
		ffprobe.SetFFProbeBinPath(cfg.FFprobePath)
	}
	if cfg.Offset < 0 {
		cfg.Offset = DefaultThumbnailOffset
	}
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = DefaultThumbnailMaxEdge
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultThumbnailTimeout
	}

	return &Thumbnailer{cfg: cfg, run: execCommand, inspect: inspectFile, logger: log}
}

// WithRunner swaps the ffmpeg command runner. Used by tests.
func (t *Thumbnailer) WithRunner(run CommandRunner) *Thumbnailer {
	clone := *t
	clone.run = run
	return &clone
}

// WithInspector swaps the ffprobe call. Used by tests.
func (t *Thumbnailer) WithInspector(inspect Inspector) *Thumbnailer {
	clone := *t
	clone.inspect = inspect
	return &clone
}

// Stage writes the video once for both ExtractMetadata and ExtractThumbnail.
// The caller must Close the result.
func (t *Thumbnailer) Stage(data []byte, contentType string) (*StagedVideo, error) {
	path, cleanup, err := writeTempInput(data, contentType)
	if err != nil {
		return nil, err
	}
	return NewStagedVideo(path, cleanup), nil
}

func (t *Thumbnailer) ExtractMetadata(ctx context.Context, video *StagedVideo) (*VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	data, err := t.inspect(ctx, video.Path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return metadataFromStreams(data)
}

// ExtractThumbnail grabs one frame at the configured offset, falling back to
// the first frame for clips shorter than the offset, and fits it within
// MaxEdge. It never returns an error.
func (t *Thumbnailer) ExtractThumbnail(ctx context.Context, video *StagedVideo) ThumbnailResult {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	input := video.Path
	frame, err := t.grabFrame(ctx, input, t.cfg.Offset)
	if err != nil && t.cfg.Offset > 0 && ctx.Err() == nil {
		frame, err = t.grabFrame(ctx, input, 0)
	}
	if err != nil {
		if ctx.Err() != nil {
			return failedThumbnail("timed out", ctx.Err())
		}
		return failedThumbnail("frame extraction failed", err)
	}

	img, err := Decode(frame)
	if err != nil {
		return failedThumbnail("frame decode failed", err)
	}

	fitted := imaging.Fit(img, t.cfg.MaxEdge, t.cfg.MaxEdge, imaging.Lanczos)

	encoded, err := Encode(fitted, ThumbnailFormat)
	if err != nil {
		return failedThumbnail("thumbnail encode failed", err)
	}

	bounds := fitted.Bounds()
	return ThumbnailResult{
		OK:     true,
		Data:   encoded,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: ThumbnailFormat,
	}
}

func (t *Thumbnailer) grabFrame(ctx context.Context, input string, offset time.Duration) ([]byte, error) {
	out, err := t.run(ctx, t.cfg.FFmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errEmptyFrame
	}
	return out, nil
}

var videoExtensions = map[string]string{
	"video/mp4":        ".mp4",
	"video/quicktime":  ".mov",
	"video/x-m4v":      ".m4v",
	"video/3gpp":       ".3gp",
	"video/webm":       ".webm",
	"video/x-msvideo":  ".avi",
	"video/x-matroska": ".mkv",
}

func writeTempInput(data []byte, contentType string) (string, func(), error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext := videoExtensions[ct]

	f, err := os.CreateTemp("", "mediahub-video-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	return filepath.Clean(name), cleanup, nil
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[:512]
		}
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}

	return stdout.Bytes(), nil
}

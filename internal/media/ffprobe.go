package media

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"gopkg.in/vansante/go-ffprobe.v2"
)

var ErrNoVideoStreams = errors.New("no video streams found")

// VideoMetadata is what the pipeline keeps from a probe.
type VideoMetadata struct {
	Width    int
	Height   int
	Duration time.Duration
	Codec    string
}

// Inspector reads container and stream information for a local file.
type Inspector func(ctx context.Context, path string) (*ffprobe.ProbeData, error)

func inspectFile(ctx context.Context, path string) (*ffprobe.ProbeData, error) {
	return ffprobe.ProbeURL(ctx, path)
}

// metadataFromStreams picks the first video stream with real dimensions.
// Cover art and other zero-sized video streams are skipped.
func metadataFromStreams(data *ffprobe.ProbeData) (*VideoMetadata, error) {
	if data == nil {
		return nil, ErrNoVideoStreams
	}

	for _, stream := range data.Streams {
		if stream == nil || stream.CodecType != "video" || stream.Width <= 0 || stream.Height <= 0 {
			continue
		}

		meta := &VideoMetadata{
			Width:  stream.Width,
			Height: stream.Height,
			Codec:  stream.CodecName,
		}
		if isQuarterTurn(streamRotation(stream)) {
			meta.Width, meta.Height = meta.Height, meta.Width
		}

		meta.Duration = parseSeconds(stream.Duration)
		if meta.Duration == 0 && data.Format != nil {
			meta.Duration = data.Format.Duration()
		}

		return meta, nil
	}

	return nil, ErrNoVideoStreams
}

// streamRotation prefers the display matrix side data over the legacy
// rotate tag.
func streamRotation(stream *ffprobe.Stream) float64 {
	for _, sd := range stream.SideDataList {
		if sd.Rotation != 0 {
			return float64(sd.Rotation)
		}
	}

	switch v := stream.TagList["rotate"].(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case float64:
		return v
	}
	return 0
}

func isQuarterTurn(rotation float64) bool {
	return math.Mod(math.Abs(rotation), 180) == 90
}

func parseSeconds(value string) time.Duration {
	if value == "" || value == "N/A" {
		return 0
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

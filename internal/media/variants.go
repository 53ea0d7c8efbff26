package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"

	"mediahub/internal/models"
	"mediahub/pkg/logger"
	"mediahub/pkg/metrics"
)

var (
	ErrIncompleteMetadata    = errors.New("original image metadata is incomplete")
	ErrInvalidVariantRequest = errors.New("invalid variant request")
)

// ObjectUploader is the storage capability the engine needs.
type ObjectUploader interface {
	UploadObject(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

type GenerateInput struct {
	Original  []byte
	Metadata  *ImageMetadata
	ProjectID string
	AssetID   string
	Requests  []models.VariantOption
	Storage   ObjectUploader
}

// Engine turns an original image into the requested variant set.
type Engine struct {
	concurrency int
	logger      *logger.Logger
}

func NewEngine(concurrency int, log *logger.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Engine{concurrency: concurrency, logger: log}
}

// PlannedVariant is one distinct output of a variant request set.
type PlannedVariant struct {
	Width  int
	Height int
	Format Format
}

// Label is the actual resolution of the output.
func (p PlannedVariant) Label() string {
	return FormatResolution(p.Width, p.Height)
}

// VariantObjectName is "<projectId>/<assetId>-<w>x<h>-<format>.<format>".
func VariantObjectName(projectID, assetID, resolution string, f Format) string {
	return fmt.Sprintf("%s/%s-%s-%s.%s", projectID, assetID, resolution, f, f)
}

// SourceVariant describes the untouched original.
func SourceVariant(url string, meta *ImageMetadata) models.Variant {
	return models.Variant{
		URL:    url,
		Width:  meta.Width,
		Height: meta.Height,
		Size:   meta.Size,
		Format: meta.Format,
		Label:  models.VariantLabelSource,
	}
}

// Plan resolves requests into the distinct (width, height, format) outputs
// to produce, in request order. Requests that would reproduce the original
// at its own format, or repeat an earlier output, are dropped.
func Plan(meta *ImageMetadata, requests []models.VariantOption) ([]PlannedVariant, error) {
	type key struct {
		width, height int
		format        string
	}

	seen := map[key]bool{
		{meta.Width, meta.Height, meta.Format}: true,
	}

	tasks := make([]PlannedVariant, 0, len(requests))
	for _, req := range requests {
		size, err := ParseSizeLabel(req.SizeLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVariantRequest, err)
		}
		format, err := ParseFormat(req.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVariantRequest, err)
		}

		if size.Kind == SizeSource && format.String() == meta.Format {
			continue
		}

		w, h := size.TargetDimensions(meta.Width, meta.Height)
		k := key{w, h, format.String()}
		if seen[k] {
			continue
		}
		seen[k] = true

		tasks = append(tasks, PlannedVariant{Width: w, Height: h, Format: format})
	}

	return tasks, nil
}

// Generate produces, uploads and describes every planned variant. All
// branches run to completion; the first failure fails the whole batch and
// no partial result is returned.
func (e *Engine) Generate(ctx context.Context, in GenerateInput) ([]models.Variant, error) {
	if !in.Metadata.Complete() {
		return nil, ErrIncompleteMetadata
	}

	tasks, err := Plan(in.Metadata, in.Requests)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []models.Variant{}, nil
	}

	start := time.Now()
	defer metrics.ObserveVariantBatch(start)

	src, err := Decode(in.Original)
	if err != nil {
		return nil, err
	}

	results := make([]models.Variant, len(tasks))

	// No WithContext: a failed branch must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			variant, err := e.render(ctx, in, src, task)
			if err != nil {
				return fmt.Errorf("variant %s %s: %w", task.Label(), task.Format, err)
			}
			results[i] = variant
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.WithProjectID(in.ProjectID).WithAssetID(in.AssetID).WithFields(map[string]interface{}{
		"variants":    len(results),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Variants generated")

	return results, nil
}

func (e *Engine) render(ctx context.Context, in GenerateInput, src image.Image, task PlannedVariant) (models.Variant, error) {
	img := src
	bounds := src.Bounds()
	if bounds.Dx() != task.Width || bounds.Dy() != task.Height {
		img = resize.Resize(uint(task.Width), uint(task.Height), src, resize.Lanczos3)
	}

	data, err := Encode(img, task.Format)
	if err != nil {
		return models.Variant{}, err
	}

	objectName := VariantObjectName(in.ProjectID, in.AssetID, task.Label(), task.Format)
	url, err := in.Storage.UploadObject(ctx, objectName, data, task.Format.ContentType())
	if err != nil {
		return models.Variant{}, err
	}

	metrics.RecordVariant(task.Format.String())

	return models.Variant{
		URL:    url,
		Width:  task.Width,
		Height: task.Height,
		Size:   int64(len(data)),
		Format: task.Format.String(),
		Label:  task.Label(),
	}, nil
}

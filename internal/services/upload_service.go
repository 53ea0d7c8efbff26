package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"mediahub/internal/media"
	"mediahub/internal/models"
	"mediahub/internal/repositories/interfaces"
	"mediahub/internal/utils"
	"mediahub/internal/validators"
	"mediahub/pkg/logger"
	"mediahub/pkg/metrics"
	"mediahub/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media kinds used for metrics and logging.
const (
	mediaKindImage = "image"
	mediaKindVideo = "video"
	mediaKindOther = "other"
)

const msgUploadConfirmed = "Upload confirmed"

// AdapterResolver hands out the storage adapter for a provider.
type AdapterResolver interface {
	Get(provider storage.Provider) (storage.Adapter, error)
	ProviderStatuses() []storage.ProviderStatus
}

type VariantGenerator interface {
	Generate(ctx context.Context, in media.GenerateInput) ([]models.Variant, error)
}

// VideoProcessor works on a video staged once per confirm.
type VideoProcessor interface {
	Stage(data []byte, contentType string) (*media.StagedVideo, error)
	ExtractMetadata(ctx context.Context, video *media.StagedVideo) (*media.VideoMetadata, error)
	ExtractThumbnail(ctx context.Context, video *media.StagedVideo) media.ThumbnailResult
}

type UploadService interface {
	Presign(ctx context.Context, req *models.PresignRequest) (*models.PresignResponse, error)
	Confirm(ctx context.Context, req *models.ConfirmRequest) (*models.ConfirmResponse, error)

	GetAsset(ctx context.Context, projectID, assetID primitive.ObjectID) (*models.Asset, error)
	ListAssets(ctx context.Context, projectID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Asset, int64, error)

	DeleteAsset(ctx context.Context, projectID, assetID primitive.ObjectID) (*models.DeleteAssetsResponse, error)
	DeleteProjectAssets(ctx context.Context, projectID primitive.ObjectID) (*models.DeleteAssetsResponse, error)

	Providers() []storage.ProviderStatus
}

type UploadServiceConfig struct {
	MaxUploadSize int64
	// PresignExpiry overrides the adapter default when positive.
	PresignExpiry time.Duration
}

type uploadService struct {
	projectRepo interfaces.ProjectRepository
	assetRepo   interfaces.AssetRepository
	adapters    AdapterResolver
	variants    VariantGenerator
	video       VideoProcessor
	config      UploadServiceConfig
	logger      *logger.Logger
	audit       *logger.AuditLogger
	now         func() time.Time
}

func NewUploadService(
	projectRepo interfaces.ProjectRepository,
	assetRepo interfaces.AssetRepository,
	adapters AdapterResolver,
	variants VariantGenerator,
	video VideoProcessor,
	config UploadServiceConfig,
	log *logger.Logger,
) UploadService {
	return &uploadService{
		projectRepo: projectRepo,
		assetRepo:   assetRepo,
		adapters:    adapters,
		variants:    variants,
		video:       video,
		config:      config,
		logger:      log,
		audit:       logger.NewAuditLogger(log),
		now:         time.Now,
	}
}

func (s *uploadService) Presign(ctx context.Context, req *models.PresignRequest) (*models.PresignResponse, error) {
	if fieldErrors := validators.ValidateStruct(req); fieldErrors != nil {
		return nil, validators.NewRequestError(fieldErrors)
	}
	if err := validators.ValidateFileName(req.FileName); err != nil {
		return nil, err
	}

	fileName := validators.SanitizeFileName(req.FileName)
	if err := validators.ValidateContentTypeExtension(req.ContentType, fileName); err != nil {
		return nil, err
	}
	if err := validators.ValidateFileSize(req.FileSize, s.config.MaxUploadSize); err != nil {
		return nil, err
	}

	project, adapter, err := s.resolveProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	assetID := primitive.NewObjectID()
	objectName := fmt.Sprintf("%s/%s-%s", project.ID.Hex(), assetID.Hex(), fileName)
	contentType := validators.NormalizeContentType(req.ContentType)

	presigned, err := adapter.CreatePresignedUploadURL(ctx, objectName, contentType, s.config.PresignExpiry)
	metrics.RecordPresign(adapter.Provider().String(), err)
	if err != nil {
		return nil, err
	}

	now := s.now()
	asset := &models.Asset{
		ID:         assetID,
		ProjectID:  project.ID,
		FileName:   fileName,
		ObjectName: objectName,
		MimeType:   contentType,
		IsImage:    validators.IsImageContentType(contentType),
		Size:       req.FileSize,
		Width:      req.Width,
		Height:     req.Height,
		Variants:   []models.Variant{},
		Status:     models.AssetStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.assetRepo.CreatePending(ctx, asset); err != nil {
		return nil, newServiceError(KindPersistFailed, err)
	}

	s.logger.WithContext(ctx).LogUploadEvent(utils.EventUploadPresigned, map[string]interface{}{
		"project_id": project.ID.Hex(),
		"asset_id":   assetID.Hex(),
		"provider":   adapter.Provider().String(),
	})

	return &models.PresignResponse{
		PresignedURL: presigned.URL,
		ObjectName:   objectName,
		ObjectURL:    presigned.ObjectURL,
		FileID:       assetID.Hex(),
		ExpiresAt:    presigned.ExpiresAt,
		Headers:      presigned.Headers,
	}, nil
}

// Confirm finalises a PENDING upload. Any failure before the final write
// leaves the record PENDING so the caller may retry.
func (s *uploadService) Confirm(ctx context.Context, req *models.ConfirmRequest) (*models.ConfirmResponse, error) {
	if fieldErrors := validators.ValidateStruct(req); fieldErrors != nil {
		return nil, validators.NewRequestError(fieldErrors)
	}
	if err := checkVariantSource(req); err != nil {
		return nil, err
	}

	project, adapter, err := s.resolveProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := validators.ValidateContentTypeExtension(req.ContentType, req.FileName); err != nil {
		return nil, err
	}

	assetID, err := primitive.ObjectIDFromHex(req.FileID)
	if err != nil {
		return nil, newServiceError(KindInvalidUpload, err)
	}

	pending, err := s.assetRepo.GetPending(ctx, assetID, project.ID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newServiceError(KindInvalidUpload, err)
		}
		return nil, newServiceError(KindProcessingFailed, err)
	}
	if pending.ObjectName != req.ObjectName {
		return nil, newServiceError(KindInvalidUpload, errors.New("object name does not match pending record"))
	}

	contentType := validators.NormalizeContentType(req.ContentType)
	if contentType != pending.MimeType {
		return nil, validators.NewError(validators.KindContentTypeMismatch)
	}

	log := s.logger.WithContext(ctx).WithProjectID(project.ID.Hex()).WithAssetID(assetID.Hex())
	start := s.now()

	kind := classify(contentType, len(req.Variants) > 0)

	var completion *models.AssetCompletion
	switch kind {
	case mediaKindImage:
		completion, err = s.processImage(ctx, adapter, pending, req)
	case mediaKindVideo:
		completion, err = s.processVideo(ctx, adapter, pending, log)
	default:
		completion = s.directCompletion(adapter, pending, req.FileSize)
	}
	if err != nil {
		metrics.RecordConfirm(kind, "failed")
		log.WithError(err).Warn("Upload confirmation failed")
		return nil, err
	}

	asset, err := s.assetRepo.Complete(ctx, assetID, project.ID, completion)
	if err != nil {
		metrics.RecordConfirm(kind, "failed")
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newServiceError(KindInvalidUpload, err)
		}
		return nil, newServiceError(KindPersistFailed, err)
	}

	metrics.RecordConfirm(kind, "completed")
	log.LogUploadEvent(utils.EventUploadConfirmed, map[string]interface{}{
		"kind":     kind,
		"variants": len(asset.Variants),
		"provider": adapter.Provider().String(),
	})
	log.LogPerformanceMetric("confirm_processing", float64(s.now().Sub(start).Milliseconds()), "ms", map[string]string{"kind": kind})

	resp := &models.ConfirmResponse{Message: msgUploadConfirmed, Asset: asset}
	if len(asset.Variants) > 0 {
		resp.Variants = asset.Variants
	}
	return resp, nil
}

// checkVariantSource rejects variant requests for image types the decoder
// cannot read, before any storage or database access.
func checkVariantSource(req *models.ConfirmRequest) error {
	ct := validators.NormalizeContentType(req.ContentType)
	if len(req.Variants) == 0 || !validators.IsImageContentType(ct) || media.CanGenerateVariants(ct) {
		return nil
	}

	err := validators.NewError(validators.KindInvalidVariantRequest)
	err.Details = map[string]string{"ConfirmRequest.ContentType": "Variants cannot be generated from " + ct}
	return err
}

// classify picks the confirm branch. Images without variant requests take
// the direct path and are never downloaded.
func classify(contentType string, wantsVariants bool) string {
	switch {
	case validators.IsImageContentType(contentType) && wantsVariants:
		return mediaKindImage
	case validators.IsVideoContentType(contentType):
		return mediaKindVideo
	default:
		return mediaKindOther
	}
}

func (s *uploadService) download(ctx context.Context, adapter storage.Adapter, asset *models.Asset) ([]byte, error) {
	data, err := adapter.DownloadObject(ctx, asset.ObjectName)
	if err != nil {
		return nil, newServiceError(KindUploadedObjectNotFound, err)
	}
	if err := validators.ValidateMagicBytes(data, asset.MimeType); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *uploadService) processImage(ctx context.Context, adapter storage.Adapter, asset *models.Asset, req *models.ConfirmRequest) (*models.AssetCompletion, error) {
	original, err := s.download(ctx, adapter, asset)
	if err != nil {
		return nil, err
	}

	meta, err := media.ExtractImageMetadata(original)
	if err != nil {
		return nil, newServiceError(KindProcessingFailed, err)
	}

	generated, err := s.variants.Generate(ctx, media.GenerateInput{
		Original:  original,
		Metadata:  meta,
		ProjectID: asset.ProjectID.Hex(),
		AssetID:   asset.ID.Hex(),
		Requests:  req.Variants,
		Storage:   adapter,
	})
	if err != nil {
		switch {
		case errors.Is(err, media.ErrIncompleteMetadata):
			return nil, newServiceError(KindIncompleteMetadata, err)
		case errors.Is(err, media.ErrInvalidVariantRequest):
			return nil, validators.NewRequestError(validators.FieldErrors{{Field: "variants", Tag: "size_label", Message: "Invalid variant request"}})
		default:
			return nil, newServiceError(KindProcessingFailed, err)
		}
	}

	variants := make([]models.Variant, 0, len(generated)+1)
	variants = append(variants, media.SourceVariant(adapter.GetObjectURL(asset.ObjectName), meta))
	variants = append(variants, generated...)

	return &models.AssetCompletion{
		IsImage:  true,
		Size:     meta.Size,
		Width:    intPtr(meta.Width),
		Height:   intPtr(meta.Height),
		Variants: variants,
	}, nil
}

// processVideo tolerates metadata and thumbnail failures. Only the download
// of the original can fail the confirm.
func (s *uploadService) processVideo(ctx context.Context, adapter storage.Adapter, asset *models.Asset, log *logger.Logger) (*models.AssetCompletion, error) {
	original, err := s.download(ctx, adapter, asset)
	if err != nil {
		return nil, err
	}

	objectURL := adapter.GetObjectURL(asset.ObjectName)
	completion := &models.AssetCompletion{
		IsImage:  false,
		Size:     int64(len(original)),
		URL:      &objectURL,
		Variants: []models.Variant{},
	}

	staged, err := s.video.Stage(original, asset.MimeType)
	if err != nil {
		metrics.RecordVideoExtractionFailure("staging")
		log.WithError(err).Warn("Video staging failed")
		return completion, nil
	}
	defer staged.Close()

	meta, err := s.video.ExtractMetadata(ctx, staged)
	if err != nil {
		metrics.RecordVideoExtractionFailure("metadata")
		log.WithError(err).Warn("Video metadata extraction failed")
	} else {
		completion.Width = intPtr(meta.Width)
		completion.Height = intPtr(meta.Height)
		if meta.Duration > 0 {
			seconds := meta.Duration.Seconds()
			completion.DurationSeconds = &seconds
		}
		completion.Variants = append(completion.Variants, models.Variant{
			URL:    objectURL,
			Width:  meta.Width,
			Height: meta.Height,
			Size:   int64(len(original)),
			Format: videoFormat(meta.Codec, asset.MimeType),
			Label:  models.VariantLabelSource,
		})
	}

	thumb := s.video.ExtractThumbnail(ctx, staged)
	if !thumb.OK {
		metrics.RecordVideoExtractionFailure("thumbnail")
		log.WithField("reason", thumb.Reason).Warn("Video thumbnail extraction failed")
		return completion, nil
	}

	objectName := media.VariantObjectName(asset.ProjectID.Hex(), asset.ID.Hex(), models.VariantLabelThumbnail, thumb.Format)
	thumbURL, err := adapter.UploadObject(ctx, objectName, thumb.Data, thumb.Format.ContentType())
	if err != nil {
		metrics.RecordVideoExtractionFailure("thumbnail")
		log.WithError(err).Warn("Video thumbnail upload failed")
		return completion, nil
	}

	completion.Variants = append(completion.Variants, models.Variant{
		URL:    thumbURL,
		Width:  thumb.Width,
		Height: thumb.Height,
		Size:   int64(len(thumb.Data)),
		Format: thumb.Format.String(),
		Label:  models.VariantLabelThumbnail,
	})

	return completion, nil
}

func (s *uploadService) directCompletion(adapter storage.Adapter, asset *models.Asset, size int64) *models.AssetCompletion {
	objectURL := adapter.GetObjectURL(asset.ObjectName)
	return &models.AssetCompletion{
		IsImage:  validators.IsImageContentType(asset.MimeType),
		Size:     size,
		Width:    asset.Width,
		Height:   asset.Height,
		URL:      &objectURL,
		Variants: []models.Variant{},
	}
}

func (s *uploadService) GetAsset(ctx context.Context, projectID, assetID primitive.ObjectID) (*models.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, assetID, projectID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newServiceError(KindAssetNotFound, err)
		}
		return nil, err
	}
	return asset, nil
}

func (s *uploadService) ListAssets(ctx context.Context, projectID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Asset, int64, error) {
	return s.assetRepo.ListByProject(ctx, projectID, params)
}

// DeleteAsset removes the record first, then every object it references.
// Object deletions are best effort.
func (s *uploadService) DeleteAsset(ctx context.Context, projectID, assetID primitive.ObjectID) (*models.DeleteAssetsResponse, error) {
	_, adapter, err := s.resolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	asset, err := s.assetRepo.Delete(ctx, assetID, projectID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, newServiceError(KindAssetNotFound, err)
		}
		return nil, newServiceError(KindPersistFailed, err)
	}

	failures := s.deleteObjects(ctx, adapter, asset)

	s.logger.WithContext(ctx).LogUploadEvent(utils.EventAssetDeleted, map[string]interface{}{
		"project_id":      projectID.Hex(),
		"asset_id":        assetID.Hex(),
		"object_failures": failures,
	})
	s.audit.LogAction("delete_asset", "asset:"+assetID.Hex(), logger.UserIDFromContext(ctx), map[string]interface{}{
		"project_id": projectID.Hex(),
	})

	return &models.DeleteAssetsResponse{Deleted: 1, ObjectFailures: failures}, nil
}

// DeleteProjectAssets purges every asset of a project through the project's
// pinned adapter only.
func (s *uploadService) DeleteProjectAssets(ctx context.Context, projectID primitive.ObjectID) (*models.DeleteAssetsResponse, error) {
	_, adapter, err := s.resolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	assets, err := s.assetRepo.ListAllByProject(ctx, projectID)
	if err != nil {
		return nil, newServiceError(KindPersistFailed, err)
	}

	failures := 0
	for _, asset := range assets {
		failures += s.deleteObjects(ctx, adapter, asset)
	}

	deleted, err := s.assetRepo.DeleteByProject(ctx, projectID)
	if err != nil {
		return nil, newServiceError(KindPersistFailed, err)
	}

	s.logger.WithContext(ctx).LogUploadEvent(utils.EventProjectPurged, map[string]interface{}{
		"project_id":      projectID.Hex(),
		"deleted":         deleted,
		"object_failures": failures,
	})
	s.audit.LogAction("purge_project_assets", "project:"+projectID.Hex(), logger.UserIDFromContext(ctx), map[string]interface{}{
		"deleted": deleted,
	})

	return &models.DeleteAssetsResponse{Deleted: int(deleted), ObjectFailures: failures}, nil
}

func (s *uploadService) deleteObjects(ctx context.Context, adapter storage.Adapter, asset *models.Asset) int {
	log := s.logger.WithContext(ctx).WithProjectID(asset.ProjectID.Hex()).WithAssetID(asset.ID.Hex())

	failures := 0
	for _, objectName := range referencedObjects(asset) {
		if err := adapter.DeleteObject(ctx, objectName); err != nil {
			failures++
			log.WithError(err).WithField("object_name", objectName).Warn("Failed to delete object")
		}
	}
	return failures
}

func (s *uploadService) Providers() []storage.ProviderStatus {
	return s.adapters.ProviderStatuses()
}

func (s *uploadService) resolveProject(ctx context.Context, projectID primitive.ObjectID) (*models.Project, storage.Adapter, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil, newServiceError(KindProjectNotFound, err)
		}
		return nil, nil, err
	}

	adapter, err := s.adapters.Get(project.StorageProvider)
	if err != nil {
		return nil, nil, err
	}

	return project, adapter, nil
}

// referencedObjects lists the distinct object names an asset points at: its
// original plus one per variant URL that can be resolved.
func referencedObjects(asset *models.Asset) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	add(asset.ObjectName)
	for _, v := range asset.Variants {
		add(ObjectNameFromURL(v.URL, asset.ProjectID.Hex()))
	}
	return names
}

// ObjectNameFromURL recovers an object name from any adapter URL form by
// locating the "<projectID>/" path segment. It returns "" when the segment
// is absent.
func ObjectNameFromURL(rawURL, projectID string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}

	marker := projectID + "/"
	if strings.HasPrefix(path, marker) {
		return path
	}
	if i := strings.Index(path, "/"+marker); i >= 0 {
		return path[i+1:]
	}
	return ""
}

func videoFormat(codec, contentType string) string {
	if codec != "" {
		return strings.ToLower(codec)
	}
	if _, subtype, ok := strings.Cut(contentType, "/"); ok {
		return subtype
	}
	return contentType
}

func intPtr(v int) *int {
	return &v
}

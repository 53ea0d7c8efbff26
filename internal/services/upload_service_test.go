package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mediahub/internal/media"
	"mediahub/internal/models"
	"mediahub/internal/validators"
	"mediahub/pkg/logger"
	"mediahub/pkg/storage"
)

type harness struct {
	svc      UploadService
	projects *fakeProjectRepo
	assets   *fakeAssetRepo
	resolver *fakeResolver
	video    *fakeVideo
	project  *models.Project
}

func (h *harness) adapter(p storage.Provider) *fakeAdapter {
	return h.resolver.adapters[p]
}

func newHarness(t *testing.T, pinned storage.Provider) *harness {
	t.Helper()

	project := &models.Project{
		ID:              primitive.NewObjectID(),
		OwnerID:         "user-1",
		Name:            "gallery",
		StorageProvider: pinned,
	}

	h := &harness{
		projects: &fakeProjectRepo{projects: map[primitive.ObjectID]*models.Project{project.ID: project}},
		assets:   newFakeAssetRepo(),
		resolver: &fakeResolver{adapters: map[storage.Provider]*fakeAdapter{
			storage.ProviderS3:    newFakeAdapter(storage.ProviderS3),
			storage.ProviderGCS:   newFakeAdapter(storage.ProviderGCS),
			storage.ProviderLocal: newFakeAdapter(storage.ProviderLocal),
		}},
		video:   &fakeVideo{},
		project: project,
	}

	h.svc = NewUploadService(
		h.projects,
		h.assets,
		h.resolver,
		media.NewEngine(2, logger.NewNop()),
		h.video,
		UploadServiceConfig{MaxUploadSize: 50 << 20},
		logger.NewNop(),
	)
	return h
}

// presign runs a presign and, when data is given, stores it as the upload.
func (h *harness) presign(t *testing.T, fileName, contentType string, data []byte) *models.PresignResponse {
	t.Helper()

	size := int64(len(data))
	if size == 0 {
		size = 1024
	}

	resp, err := h.svc.Presign(context.Background(), &models.PresignRequest{
		ProjectID:   h.project.ID,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    size,
	})
	require.NoError(t, err)

	if data != nil {
		h.adapter(h.project.StorageProvider).objects[resp.ObjectName] = data
	}
	return resp
}

func (h *harness) confirmRequest(p *models.PresignResponse, fileName, contentType string, variants ...models.VariantOption) *models.ConfirmRequest {
	return &models.ConfirmRequest{
		ProjectID:   h.project.ID,
		FileID:      p.FileID,
		ObjectName:  p.ObjectName,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    1024,
		Variants:    variants,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 10 {
		for x := 0; x < w; x += 10 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func TestPresignCreatesPendingRecord(t *testing.T) {
	h := newHarness(t, storage.ProviderGCS)

	resp := h.presign(t, "  My  Photo..png", "image/png", nil)

	id, err := primitive.ObjectIDFromHex(resp.FileID)
	require.NoError(t, err)
	assert.Equal(t, h.project.ID.Hex()+"/"+resp.FileID+"-My Photo.png", resp.ObjectName)
	assert.Equal(t, "https://gcs.example.test/bucket/"+resp.ObjectName, resp.ObjectURL)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC), resp.ExpiresAt)

	asset := h.assets.get(id)
	require.NotNil(t, asset)
	assert.Equal(t, models.AssetStatusPending, asset.Status)
	assert.Equal(t, "My Photo.png", asset.FileName)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.True(t, asset.IsImage)
	assert.Empty(t, asset.Variants)

	assert.Equal(t, []time.Duration{0}, h.adapter(storage.ProviderGCS).presigned)
	assert.Empty(t, h.adapter(storage.ProviderS3).presigned)
}

func TestPresignValidatesBeforeAnyIO(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)

	cases := []struct {
		name string
		req  models.PresignRequest
		kind validators.Kind
	}{
		{"traversal", models.PresignRequest{FileName: "../secret.png", ContentType: "image/png", FileSize: 10}, validators.KindInvalidFileName},
		{"extension mismatch", models.PresignRequest{FileName: "photo.jpg", ContentType: "image/png", FileSize: 10}, validators.KindContentTypeMismatch},
		{"too large", models.PresignRequest{FileName: "photo.png", ContentType: "image/png", FileSize: 51 << 20}, validators.KindInvalidRequest},
		{"missing size", models.PresignRequest{FileName: "photo.png", ContentType: "image/png"}, validators.KindInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.ProjectID = h.project.ID
			_, err := h.svc.Presign(context.Background(), &tc.req)

			var verr *validators.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.kind, verr.Kind)
		})
	}

	assert.Zero(t, h.projects.calls)
	assert.Empty(t, h.assets.assets)
}

func TestPresignUnknownProject(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)

	_, err := h.svc.Presign(context.Background(), &models.PresignRequest{
		ProjectID:   primitive.NewObjectID(),
		FileName:    "a.png",
		ContentType: "image/png",
		FileSize:    1,
	})
	requireKind(t, err, KindProjectNotFound)
}

func TestPresignUnconfiguredProvider(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	delete(h.resolver.adapters, storage.ProviderS3)

	_, err := h.svc.Presign(context.Background(), &models.PresignRequest{
		ProjectID:   h.project.ID,
		FileName:    "a.png",
		ContentType: "image/png",
		FileSize:    1,
	})
	assert.Equal(t, storage.CodeProviderNotConfigured, storage.CodeOf(err))
	assert.Empty(t, h.assets.assets)
}

func TestConfirmImageWithVariants(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	original := pngBytes(t, 1600, 1200)
	p := h.presign(t, "photo.png", "image/png", original)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "max800", Format: "webp"},
		models.VariantOption{SizeLabel: "source", Format: "png"},
	))
	require.NoError(t, err)

	asset := resp.Asset
	assert.Equal(t, models.AssetStatusCompleted, asset.Status)
	assert.True(t, asset.IsImage)
	assert.Nil(t, asset.URL)
	require.Len(t, resp.Variants, 2)

	source := resp.Variants[0]
	assert.Equal(t, models.Variant{
		URL:    "https://s3.example.test/bucket/" + p.ObjectName,
		Width:  1600,
		Height: 1200,
		Size:   int64(len(original)),
		Format: "png",
		Label:  "source",
	}, source)

	generated := resp.Variants[1]
	assert.Equal(t, "webp", generated.Format)
	assert.Equal(t, "800x600", generated.Label)
	assert.LessOrEqual(t, generated.Width, 800)
	assert.LessOrEqual(t, generated.Height, 800)
	assert.Contains(t, h.adapter(storage.ProviderS3).objects, h.project.ID.Hex()+"/"+p.FileID+"-800x600-webp.webp")

	pngAtSource := 0
	for _, v := range resp.Variants {
		if v.Format == "png" && v.Width == 1600 && v.Height == 1200 {
			pngAtSource++
		}
	}
	assert.Equal(t, 1, pngAtSource)

	require.NotNil(t, asset.Width)
	assert.Equal(t, 1600, *asset.Width)
}

func TestConfirmNonImageNeverDownloads(t *testing.T) {
	for _, contentType := range []string{"application/pdf", "text/plain", "application/zip"} {
		t.Run(contentType, func(t *testing.T) {
			h := newHarness(t, storage.ProviderLocal)
			fileName := map[string]string{"application/pdf": "doc.pdf", "text/plain": "notes.txt", "application/zip": "a.zip"}[contentType]
			p := h.presign(t, fileName, contentType, nil)

			resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, fileName, contentType,
				models.VariantOption{SizeLabel: "max320", Format: "jpeg"},
			))
			require.NoError(t, err)

			assert.Empty(t, h.adapter(storage.ProviderLocal).downloads)
			assert.Empty(t, resp.Asset.Variants)
			assert.Nil(t, resp.Variants)
			require.NotNil(t, resp.Asset.URL)
			assert.Equal(t, p.ObjectURL, *resp.Asset.URL)
			assert.False(t, resp.Asset.IsImage)
		})
	}
}

func TestConfirmImageWithoutVariantsSkipsDownload(t *testing.T) {
	h := newHarness(t, storage.ProviderGCS)
	p := h.presign(t, "photo.png", "image/png", nil)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png"))
	require.NoError(t, err)

	assert.Empty(t, h.adapter(storage.ProviderGCS).downloads)
	assert.True(t, resp.Asset.IsImage)
	require.NotNil(t, resp.Asset.URL)
	assert.Empty(t, resp.Asset.Variants)
}

var mp4Header = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 0, 0, 'i', 's', 'o', 'm', 'a', 'v', 'c', '1', 'm', 'o', 'o', 'v'}

func TestConfirmVideoThumbnailFailureStillCompletes(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	h.video.meta = &media.VideoMetadata{Width: 1920, Height: 1080, Duration: 4 * time.Second, Codec: "h264"}
	h.video.thumb = media.ThumbnailResult{OK: false, Reason: "timed out"}

	p := h.presign(t, "clip.mp4", "video/mp4", mp4Header)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	asset := resp.Asset
	assert.Equal(t, models.AssetStatusCompleted, asset.Status)
	assert.False(t, asset.IsImage)
	require.NotNil(t, asset.URL)
	require.Len(t, asset.Variants, 1)
	assert.Equal(t, "source", asset.Variants[0].Label)
	assert.Equal(t, "h264", asset.Variants[0].Format)
	assert.Equal(t, 1920, asset.Variants[0].Width)
	require.NotNil(t, asset.DurationSeconds)
	assert.Equal(t, 4.0, *asset.DurationSeconds)
}

func TestConfirmVideoWithoutMetadataOrThumbnail(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	h.video.metaErr = errors.New("ffprobe: exit status 1")
	h.video.thumb = media.ThumbnailResult{OK: false, Reason: "frame extraction failed"}

	p := h.presign(t, "clip.mp4", "video/mp4", mp4Header)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "clip.mp4", "video/mp4"))
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusCompleted, resp.Asset.Status)
	assert.False(t, resp.Asset.IsImage)
	assert.Empty(t, resp.Asset.Variants)
	assert.Nil(t, resp.Asset.Width)
}

func TestConfirmVideoStoresThumbnail(t *testing.T) {
	h := newHarness(t, storage.ProviderGCS)
	h.video.meta = &media.VideoMetadata{Width: 1280, Height: 720, Codec: "vp9"}
	h.video.thumb = media.ThumbnailResult{OK: true, Data: []byte("webp"), Width: 640, Height: 360, Format: media.FormatWebP}

	p := h.presign(t, "clip.mp4", "video/mp4", mp4Header)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "clip.mp4", "video/mp4"))
	require.NoError(t, err)
	require.Len(t, resp.Variants, 2)

	thumb := resp.Variants[1]
	assert.Equal(t, "thumbnail", thumb.Label)
	assert.Equal(t, "webp", thumb.Format)
	assert.Equal(t, 640, thumb.Width)

	objectName := h.project.ID.Hex() + "/" + p.FileID + "-thumbnail-webp.webp"
	assert.Equal(t, []byte("webp"), h.adapter(storage.ProviderGCS).objects[objectName])
}

func TestConfirmVideoStagesOnce(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	h.video.meta = &media.VideoMetadata{Width: 1280, Height: 720, Codec: "h264"}
	h.video.thumb = media.ThumbnailResult{OK: true, Data: []byte("webp"), Width: 640, Height: 360, Format: media.FormatWebP}

	p := h.presign(t, "clip.mp4", "video/mp4", mp4Header)

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "clip.mp4", "video/mp4"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.video.stageRuns)
	assert.Equal(t, 1, h.video.closed)
	require.Len(t, h.video.seenVideos, 2)
	assert.Same(t, h.video.seenVideos[0], h.video.seenVideos[1])
}

func TestConfirmVideoStagingFailureStillCompletes(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	h.video.stageErr = errors.New("no space left on device")

	p := h.presign(t, "clip.mp4", "video/mp4", mp4Header)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "clip.mp4", "video/mp4"))
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusCompleted, resp.Asset.Status)
	require.NotNil(t, resp.Asset.URL)
	assert.Empty(t, resp.Asset.Variants)
	assert.Zero(t, h.video.metaRuns)
}

func TestConfirmRejectsNonPendingAndForeignUploadsAlike(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "doc.pdf", "application/pdf", nil)

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "doc.pdf", "application/pdf"))
	require.NoError(t, err)

	_, alreadyDone := h.svc.Confirm(context.Background(), h.confirmRequest(p, "doc.pdf", "application/pdf"))
	requireKind(t, alreadyDone, KindInvalidUpload)

	other := &models.Project{ID: primitive.NewObjectID(), StorageProvider: storage.ProviderS3}
	h.projects.projects[other.ID] = other
	foreignReq := h.confirmRequest(p, "doc.pdf", "application/pdf")
	foreignReq.ProjectID = other.ID
	_, foreign := h.svc.Confirm(context.Background(), foreignReq)
	requireKind(t, foreign, KindInvalidUpload)

	missingReq := h.confirmRequest(p, "doc.pdf", "application/pdf")
	missingReq.FileID = primitive.NewObjectID().Hex()
	_, missing := h.svc.Confirm(context.Background(), missingReq)
	requireKind(t, missing, KindInvalidUpload)

	assert.Equal(t, alreadyDone.Error(), foreign.Error())
	assert.Equal(t, alreadyDone.Error(), missing.Error())
}

func TestConfirmObjectNameMustMatch(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "doc.pdf", "application/pdf", nil)

	req := h.confirmRequest(p, "doc.pdf", "application/pdf")
	req.ObjectName = h.project.ID.Hex() + "/someone-else.pdf"

	_, err := h.svc.Confirm(context.Background(), req)
	requireKind(t, err, KindInvalidUpload)
}

func TestConfirmMissingObjectLeavesRecordPending(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "photo.png", "image/png", nil)

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "max320", Format: "webp"},
	))
	requireKind(t, err, KindUploadedObjectNotFound)
	assert.Equal(t, "Uploaded object not found", err.Error())

	id, _ := primitive.ObjectIDFromHex(p.FileID)
	assert.Equal(t, models.AssetStatusPending, h.assets.get(id).Status)

	h.adapter(storage.ProviderS3).objects[p.ObjectName] = pngBytes(t, 100, 100)
	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "max320", Format: "webp"},
	))
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusCompleted, resp.Asset.Status)
}

func TestConfirmRejectsSpoofedContent(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "photo.png", "image/png", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0})

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "max320", Format: "webp"},
	))

	var verr *validators.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validators.KindMagicBytesMismatch, verr.Kind)
}

func TestConfirmRejectsInvalidVariantsBeforeIO(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "photo.png", "image/png", pngBytes(t, 10, 10))
	calls := h.projects.calls

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "10001x10", Format: "webp"},
	))

	var verr *validators.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validators.KindInvalidVariantRequest, verr.Kind)
	assert.Equal(t, calls, h.projects.calls)
	assert.Empty(t, h.adapter(storage.ProviderS3).downloads)
}

func TestConfirmRejectsVariantsForUndecodableImagesBeforeIO(t *testing.T) {
	tests := []struct {
		fileName    string
		contentType string
	}{
		{"logo.svg", "image/svg+xml"},
		{"IMG_0001.heic", "image/heic"},
		{"burst.heif", "image/heif"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			h := newHarness(t, storage.ProviderS3)
			p := h.presign(t, tt.fileName, tt.contentType, []byte("uploaded"))
			calls := h.projects.calls

			_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, tt.fileName, tt.contentType,
				models.VariantOption{SizeLabel: "max320", Format: "webp"},
			))

			var verr *validators.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, validators.KindInvalidVariantRequest, verr.Kind)
			assert.Contains(t, verr.Details["ConfirmRequest.ContentType"], tt.contentType)
			assert.Equal(t, calls, h.projects.calls)
			assert.Empty(t, h.adapter(storage.ProviderS3).downloads)
		})
	}
}

func TestConfirmUndecodableImageWithoutVariantsTakesDirectPath(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "logo.svg", "image/svg+xml", []byte("<svg/>"))

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "logo.svg", "image/svg+xml"))
	require.NoError(t, err)
	assert.True(t, resp.Asset.IsImage)
	assert.Empty(t, h.adapter(storage.ProviderS3).downloads)
}

func TestConfirmPersistFailureKeepsRecordPending(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "doc.pdf", "application/pdf", nil)
	h.assets.completeErr = errors.New("connection reset")

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "doc.pdf", "application/pdf"))
	requireKind(t, err, KindPersistFailed)
	assert.Equal(t, "Failed to save upload", err.Error())

	id, _ := primitive.ObjectIDFromHex(p.FileID)
	assert.Equal(t, models.AssetStatusPending, h.assets.get(id).Status)
}

func TestConfirmLostRaceReportsInvalidUpload(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	p := h.presign(t, "doc.pdf", "application/pdf", nil)

	racing := &racingAssetRepo{fakeAssetRepo: h.assets}
	svc := NewUploadService(h.projects, racing, h.resolver, media.NewEngine(1, logger.NewNop()), h.video, UploadServiceConfig{}, logger.NewNop())

	_, err := svc.Confirm(context.Background(), h.confirmRequest(p, "doc.pdf", "application/pdf"))
	requireKind(t, err, KindInvalidUpload)
}

// racingAssetRepo lets a competing confirm complete the record just before
// the write under test.
type racingAssetRepo struct {
	*fakeAssetRepo
}

func (r *racingAssetRepo) Complete(ctx context.Context, id, projectID primitive.ObjectID, c *models.AssetCompletion) (*models.Asset, error) {
	if _, err := r.fakeAssetRepo.Complete(ctx, id, projectID, c); err != nil {
		return nil, err
	}
	return r.fakeAssetRepo.Complete(ctx, id, projectID, c)
}

func TestReadPathsHidePendingAssets(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	pending := h.presign(t, "a.pdf", "application/pdf", nil)
	done := h.presign(t, "b.pdf", "application/pdf", nil)

	_, err := h.svc.Confirm(context.Background(), h.confirmRequest(done, "b.pdf", "application/pdf"))
	require.NoError(t, err)

	pendingID, _ := primitive.ObjectIDFromHex(pending.FileID)
	_, err = h.svc.GetAsset(context.Background(), h.project.ID, pendingID)
	requireKind(t, err, KindAssetNotFound)

	assets, total, err := h.svc.ListAssets(context.Background(), h.project.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, done.FileID, assets[0].ID.Hex())
}

func TestDeleteAssetRemovesEveryObject(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	original := pngBytes(t, 400, 300)
	p := h.presign(t, "photo.png", "image/png", original)

	resp, err := h.svc.Confirm(context.Background(), h.confirmRequest(p, "photo.png", "image/png",
		models.VariantOption{SizeLabel: "max320", Format: "jpeg"},
		models.VariantOption{SizeLabel: "200x200", Format: "png"},
	))
	require.NoError(t, err)
	require.Len(t, resp.Variants, 3)

	adapter := h.adapter(storage.ProviderS3)
	adapter.deleteErr[h.project.ID.Hex()+"/"+p.FileID+"-200x150-png.png"] = storage.NewError(storage.CodeDeleteFailed, nil)

	out, err := h.svc.DeleteAsset(context.Background(), h.project.ID, resp.Asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Deleted)
	assert.Equal(t, 1, out.ObjectFailures)

	assert.ElementsMatch(t, []string{
		p.ObjectName,
		h.project.ID.Hex() + "/" + p.FileID + "-320x240-jpeg.jpeg",
		h.project.ID.Hex() + "/" + p.FileID + "-200x150-png.png",
	}, adapter.deletes)
	assert.Nil(t, h.assets.get(resp.Asset.ID))

	_, err = h.svc.DeleteAsset(context.Background(), h.project.ID, resp.Asset.ID)
	requireKind(t, err, KindAssetNotFound)
}

func TestDeleteProjectAssetsUsesOnlyPinnedAdapter(t *testing.T) {
	h := newHarness(t, storage.ProviderGCS)
	projectHex := h.project.ID.Hex()

	asset := &models.Asset{
		ID:         primitive.NewObjectID(),
		ProjectID:  h.project.ID,
		ObjectName: projectHex + "/a-original.png",
		Status:     models.AssetStatusCompleted,
		Variants: []models.Variant{
			{URL: "https://s3.example.test/bucket/" + projectHex + "/a-320x240-webp.webp"},
			{URL: "s3://bucket/" + projectHex + "/a-640x480-webp.webp"},
			{URL: "http://localhost:8080/files/" + projectHex + "/a-100x75-png.png"},
		},
	}
	h.assets.put(asset)
	h.assets.put(&models.Asset{
		ID:         primitive.NewObjectID(),
		ProjectID:  h.project.ID,
		ObjectName: projectHex + "/b-doc.pdf",
		Status:     models.AssetStatusPending,
	})

	out, err := h.svc.DeleteProjectAssets(context.Background(), h.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Deleted)
	assert.Zero(t, out.ObjectFailures)

	assert.Empty(t, h.adapter(storage.ProviderS3).deletes)
	assert.Empty(t, h.adapter(storage.ProviderLocal).deletes)
	assert.ElementsMatch(t, []string{
		projectHex + "/a-original.png",
		projectHex + "/a-320x240-webp.webp",
		projectHex + "/a-640x480-webp.webp",
		projectHex + "/a-100x75-png.png",
		projectHex + "/b-doc.pdf",
	}, h.adapter(storage.ProviderGCS).deletes)

	for _, p := range h.resolver.gets {
		assert.Equal(t, storage.ProviderGCS, p)
	}
}

func TestObjectNameFromURL(t *testing.T) {
	const project = "665f1c2e9a1b2c3d4e5f6a7b"

	tests := []struct {
		url  string
		want string
	}{
		{"https://storage.googleapis.com/bucket/" + project + "/a-My%20Photo.png", project + "/a-My Photo.png"},
		{"https://cdn.example.com/media/" + project + "/a-1x1-png.png", project + "/a-1x1-png.png"},
		{"s3://bucket/" + project + "/a-x.webp", project + "/a-x.webp"},
		{project + "/raw-name.png", project + "/raw-name.png"},
		{"https://cdn.example.com/other/a.png", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectNameFromURL(tt.url, project), tt.url)
	}
}

func TestProvidersReportsStatuses(t *testing.T) {
	h := newHarness(t, storage.ProviderS3)
	delete(h.resolver.adapters, storage.ProviderLocal)

	statuses := h.svc.Providers()
	require.Len(t, statuses, 3)
	assert.Equal(t, storage.ProviderStatus{Provider: storage.ProviderLocal, Configured: false}, statuses[2])
}

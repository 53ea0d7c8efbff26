package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mediahub/internal/media"
	"mediahub/internal/models"
	"mediahub/internal/repositories/interfaces"
	"mediahub/internal/utils"
	"mediahub/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProjectRepo struct {
	projects map[primitive.ObjectID]*models.Project
	calls    int
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.calls++
	p, ok := r.projects[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProjectRepo) InvalidateCache(context.Context, primitive.ObjectID) error {
	return nil
}

type fakeAssetRepo struct {
	mu          sync.Mutex
	assets      map[primitive.ObjectID]*models.Asset
	completeErr error
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[primitive.ObjectID]*models.Asset{}}
}

func (r *fakeAssetRepo) put(a *models.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[a.ID] = a
}

func (r *fakeAssetRepo) get(id primitive.ObjectID) *models.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assets[id]
}

func (r *fakeAssetRepo) CreatePending(_ context.Context, a *models.Asset) error {
	r.put(a)
	return nil
}

func (r *fakeAssetRepo) GetPending(_ context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	a := r.get(id)
	if a == nil || a.ProjectID != projectID || a.Status != models.AssetStatusPending {
		return nil, interfaces.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAssetRepo) Complete(_ context.Context, id, projectID primitive.ObjectID, c *models.AssetCompletion) (*models.Asset, error) {
	if r.completeErr != nil {
		return nil, r.completeErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.assets[id]
	if a == nil || a.ProjectID != projectID || a.Status != models.AssetStatusPending {
		return nil, interfaces.ErrNotFound
	}
	a.Status = models.AssetStatusCompleted
	a.IsImage = c.IsImage
	a.Size = c.Size
	a.Width = c.Width
	a.Height = c.Height
	a.DurationSeconds = c.DurationSeconds
	a.URL = c.URL
	a.Variants = c.Variants
	a.UpdatedAt = time.Now()

	clone := *a
	return &clone, nil
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	a := r.get(id)
	if a == nil || a.ProjectID != projectID || a.Status != models.AssetStatusCompleted {
		return nil, interfaces.ErrNotFound
	}
	return a, nil
}

func (r *fakeAssetRepo) ListByProject(_ context.Context, projectID primitive.ObjectID, _ *utils.PaginationParams) ([]*models.Asset, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Asset
	for _, a := range r.assets {
		if a.ProjectID == projectID && a.Status == models.AssetStatusCompleted {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id, projectID primitive.ObjectID) (*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.assets[id]
	if a == nil || a.ProjectID != projectID {
		return nil, interfaces.ErrNotFound
	}
	delete(r.assets, id)
	return a, nil
}

func (r *fakeAssetRepo) ListAllByProject(_ context.Context, projectID primitive.ObjectID) ([]*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Asset
	for _, a := range r.assets {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, a := range r.assets {
		if a.ProjectID == projectID {
			delete(r.assets, id)
			n++
		}
	}
	return n, nil
}

// fakeAdapter keeps objects in memory and records every call.
type fakeAdapter struct {
	provider storage.Provider
	baseURL  string

	mu        sync.Mutex
	objects   map[string][]byte
	downloads []string
	uploads   []string
	deletes   []string
	deleteErr map[string]error
	presigned []time.Duration
}

func newFakeAdapter(provider storage.Provider) *fakeAdapter {
	return &fakeAdapter{
		provider:  provider,
		baseURL:   fmt.Sprintf("https://%s.example.test/bucket", provider),
		objects:   map[string][]byte{},
		deleteErr: map[string]error{},
	}
}

func (a *fakeAdapter) Provider() storage.Provider { return a.provider }
func (a *fakeAdapter) IsConfigured() bool         { return true }

func (a *fakeAdapter) CreatePresignedUploadURL(_ context.Context, objectName, _ string, expiresIn time.Duration) (*storage.PresignedUpload, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.presigned = append(a.presigned, expiresIn)

	return &storage.PresignedUpload{
		URL:       a.GetObjectURL(objectName) + "?signature=x",
		ObjectURL: a.GetObjectURL(objectName),
		ExpiresAt: time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC),
	}, nil
}

func (a *fakeAdapter) UploadObject(_ context.Context, objectName string, data []byte, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[objectName] = data
	a.uploads = append(a.uploads, objectName)
	return a.GetObjectURL(objectName), nil
}

func (a *fakeAdapter) DownloadObject(_ context.Context, objectName string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.downloads = append(a.downloads, objectName)

	data, ok := a.objects[objectName]
	if !ok {
		return nil, storage.NewError(storage.CodeObjectNotFound, errors.New("NoSuchKey"))
	}
	return data, nil
}

func (a *fakeAdapter) DeleteObject(_ context.Context, objectName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletes = append(a.deletes, objectName)
	if err := a.deleteErr[objectName]; err != nil {
		return err
	}
	delete(a.objects, objectName)
	return nil
}

func (a *fakeAdapter) GetObjectURL(objectName string) string {
	return a.baseURL + "/" + objectName
}

type fakeResolver struct {
	adapters map[storage.Provider]*fakeAdapter
	gets     []storage.Provider
}

func (r *fakeResolver) Get(provider storage.Provider) (storage.Adapter, error) {
	r.gets = append(r.gets, provider)
	a, ok := r.adapters[provider]
	if !ok {
		return nil, storage.NewError(storage.CodeProviderNotConfigured, nil)
	}
	return a, nil
}

func (r *fakeResolver) ProviderStatuses() []storage.ProviderStatus {
	var out []storage.ProviderStatus
	for _, p := range storage.AllProviders {
		_, ok := r.adapters[p]
		out = append(out, storage.ProviderStatus{Provider: p, Configured: ok})
	}
	return out
}

type fakeVideo struct {
	meta     *media.VideoMetadata
	metaErr  error
	thumb    media.ThumbnailResult
	stageErr error

	stageRuns  int
	metaRuns   int
	closed     int
	seenVideos []*media.StagedVideo
}

func (v *fakeVideo) Stage([]byte, string) (*media.StagedVideo, error) {
	v.stageRuns++
	if v.stageErr != nil {
		return nil, v.stageErr
	}
	return media.NewStagedVideo("/tmp/mediahub-video.mp4", func() { v.closed++ }), nil
}

func (v *fakeVideo) ExtractMetadata(_ context.Context, video *media.StagedVideo) (*media.VideoMetadata, error) {
	v.metaRuns++
	v.seenVideos = append(v.seenVideos, video)
	return v.meta, v.metaErr
}

func (v *fakeVideo) ExtractThumbnail(_ context.Context, video *media.StagedVideo) media.ThumbnailResult {
	v.seenVideos = append(v.seenVideos, video)
	return v.thumb
}

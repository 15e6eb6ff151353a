package screeningService

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/screening"
	screeningRepository "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/repository"
	"github.com/hudaib2009/AI-DR-Assistant/internal/entity"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/classifier"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/utils"
	"github.com/sirupsen/logrus"
)

type fakeClassifier struct {
	available bool
	pred      classifier.Prediction
	err       error
	calls     int
}

func (f *fakeClassifier) Available() bool   { return f.available }
func (f *fakeClassifier) ModelName() string { return "test-model" }

func (f *fakeClassifier) Preprocess(imageBytes []byte) (*classifier.Tensor, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClassifier) Infer(t *classifier.Tensor) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeClassifier) Predict(imageBytes []byte) (classifier.Prediction, error) {
	f.calls++
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	return f.pred, nil
}

func (f *fakeClassifier) Close() {}

type fakeRedis struct {
	store  map[string]string
	getErr error
	setErr error
	sets   int
}

func (f *fakeRedis) SetPrediction(ctx context.Context, imageHash, payload string, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.store == nil {
		f.store = make(map[string]string)
	}
	f.store[imageHash] = payload
	f.sets++
	return nil
}

func (f *fakeRedis) GetPrediction(ctx context.Context, imageHash string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	payload, ok := f.store[imageHash]
	if !ok {
		return "", errors.New("cache miss")
	}
	return payload, nil
}

type fakeS3 struct {
	uploads   []string
	uploadErr error
}

func (f *fakeS3) UploadImage(fileName string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, fileName)
	return "https://bucket.s3.amazonaws.com/" + fileName, nil
}

func (f *fakeS3) PresignUrl(fileName string) (string, error) {
	return fileName + "?signed", nil
}

func (f *fakeS3) DeleteFile(fileName string) error { return nil }

type fakeScreeningStore struct {
	records    map[string]entity.Screening
	created    []entity.Screening
	createErr  error
	lastLimit  int
	lastOffset int
}

func (f *fakeScreeningStore) CreateScreening(ctx context.Context, record entity.Screening) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.records == nil {
		f.records = make(map[string]entity.Screening)
	}
	f.records[record.ID] = record
	f.created = append(f.created, record)
	return nil
}

func (f *fakeScreeningStore) GetScreeningByID(ctx context.Context, id string) (entity.Screening, error) {
	record, ok := f.records[id]
	if !ok {
		return entity.Screening{}, screening.ErrScreeningNotFound
	}
	return record, nil
}

func (f *fakeScreeningStore) GetAllScreenings(ctx context.Context, limit, offset int) ([]entity.Screening, int, error) {
	f.lastLimit = limit
	f.lastOffset = offset

	var records []entity.Screening
	for _, record := range f.records {
		records = append(records, record)
	}
	return records, len(records), nil
}

func (f *fakeScreeningStore) DeleteScreening(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return screening.ErrScreeningNotFound
	}
	delete(f.records, id)
	return nil
}

type fakeRepository struct {
	store     *fakeScreeningStore
	clientErr error
	commits   int
	rollbacks int
}

func (f *fakeRepository) NewClient(tx bool) (screeningRepository.Client, error) {
	if f.clientErr != nil {
		return screeningRepository.Client{}, f.clientErr
	}
	return screeningRepository.Client{
		Screenings: f.store,
		Commit:     func() error { f.commits++; return nil },
		Rollback:   func() error { f.rollbacks++; return nil },
	}, nil
}

func newTestService(repo *fakeRepository, cls *fakeClassifier, cache *fakeRedis, files *fakeS3) IScreeningService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger, repo, cls, cache, files, utils.New())
}

func TestScreenPersistsPrediction(t *testing.T) {
	store := &fakeScreeningStore{}
	repo := &fakeRepository{store: store}
	cls := &fakeClassifier{available: true, pred: classifier.Prediction{Positive: true, RawScore: 0.9, Confidence: 0.9}}
	cache := &fakeRedis{}
	files := &fakeS3{}

	svc := newTestService(repo, cls, cache, files)

	imageBytes := []byte("fake image bytes")
	result, err := svc.Screen(context.Background(), imageBytes, "retina.png", "upload")
	if err != nil {
		t.Fatalf("Screen returned error: %v", err)
	}

	if result.Prediction != classifier.LabelPositive {
		t.Errorf("expected label %q, got %q", classifier.LabelPositive, result.Prediction)
	}
	if result.RawValue != 0.9 || result.Confidence != 0.9 {
		t.Errorf("unexpected scores: raw=%v confidence=%v", result.RawValue, result.Confidence)
	}
	if result.Cached {
		t.Error("fresh prediction should not be marked cached")
	}
	if len(result.ID) != 26 {
		t.Errorf("expected ULID id, got %q", result.ID)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.created))
	}
	record := store.created[0]
	expectedHash := utils.New().HashImageBytes(imageBytes)
	if record.ImageSHA256 != expectedHash {
		t.Errorf("expected image hash %s, got %s", expectedHash, record.ImageSHA256)
	}
	if record.Source != "upload" {
		t.Errorf("expected source upload, got %q", record.Source)
	}
	if record.ModelName != "test-model" {
		t.Errorf("expected model test-model, got %q", record.ModelName)
	}
	if record.ImageURL == "" {
		t.Error("expected uploaded image URL on the record")
	}

	if repo.commits != 1 {
		t.Errorf("expected one commit, got %d", repo.commits)
	}
	if cache.sets != 1 {
		t.Errorf("expected prediction to be cached once, got %d", cache.sets)
	}
}

func TestScreenModelUnavailable(t *testing.T) {
	store := &fakeScreeningStore{}
	cls := &fakeClassifier{available: false}

	svc := newTestService(&fakeRepository{store: store}, cls, &fakeRedis{}, &fakeS3{})

	_, err := svc.Screen(context.Background(), []byte("fake image bytes"), "retina.png", "upload")
	if !errors.Is(err, classifier.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if cls.calls != 0 {
		t.Errorf("classifier should not be called when unavailable, got %d calls", cls.calls)
	}
	if len(store.created) != 0 {
		t.Errorf("no record should be persisted, got %d", len(store.created))
	}
}

func TestScreenEmptyImage(t *testing.T) {
	svc := newTestService(&fakeRepository{store: &fakeScreeningStore{}}, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	_, err := svc.Screen(context.Background(), nil, "retina.png", "upload")
	if !errors.Is(err, screening.ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestScreenServesCachedPrediction(t *testing.T) {
	store := &fakeScreeningStore{}
	cls := &fakeClassifier{available: true, pred: classifier.Prediction{Positive: true, RawScore: 0.9, Confidence: 0.9}}

	imageBytes := []byte("fake image bytes")
	imageHash := utils.New().HashImageBytes(imageBytes)
	cache := &fakeRedis{store: map[string]string{
		imageHash: `{"positive":false,"raw_value":0.2,"confidence":0.8,"model_name":"cached-model"}`,
	}}

	svc := newTestService(&fakeRepository{store: store}, cls, cache, &fakeS3{})

	result, err := svc.Screen(context.Background(), imageBytes, "retina.png", "upload")
	if err != nil {
		t.Fatalf("Screen returned error: %v", err)
	}

	if !result.Cached {
		t.Error("expected result to be marked cached")
	}
	if result.RawValue != 0.2 || result.Confidence != 0.8 {
		t.Errorf("expected cached scores, got raw=%v confidence=%v", result.RawValue, result.Confidence)
	}
	if result.Prediction != classifier.LabelNegative {
		t.Errorf("expected label %q, got %q", classifier.LabelNegative, result.Prediction)
	}
	if result.Model != "cached-model" {
		t.Errorf("expected cached model name, got %q", result.Model)
	}
	if cls.calls != 0 {
		t.Errorf("classifier should not run on cache hit, got %d calls", cls.calls)
	}
	if len(store.created) != 1 {
		t.Errorf("cache hit should still persist a record, got %d", len(store.created))
	}
	if cache.sets != 0 {
		t.Errorf("cached result should not be re-stored, got %d sets", cache.sets)
	}
}

func TestScreenPredictionError(t *testing.T) {
	store := &fakeScreeningStore{}
	cls := &fakeClassifier{available: true, err: classifier.ErrImageDecode}

	svc := newTestService(&fakeRepository{store: store}, cls, &fakeRedis{}, &fakeS3{})

	_, err := svc.Screen(context.Background(), []byte("not an image"), "retina.png", "upload")
	if !errors.Is(err, classifier.ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("failed prediction must not be persisted, got %d records", len(store.created))
	}
}

func TestScreenContinuesWhenUploadFails(t *testing.T) {
	store := &fakeScreeningStore{}
	cls := &fakeClassifier{available: true, pred: classifier.Prediction{Positive: false, RawScore: 0.3, Confidence: 0.7}}
	files := &fakeS3{uploadErr: errors.New("s3 down")}

	svc := newTestService(&fakeRepository{store: store}, cls, &fakeRedis{}, files)

	result, err := svc.Screen(context.Background(), []byte("fake image bytes"), "retina.png", "upload")
	if err != nil {
		t.Fatalf("Screen should tolerate upload failure, got %v", err)
	}
	if result.ImageURL != "" {
		t.Errorf("expected empty image URL, got %q", result.ImageURL)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected record despite upload failure, got %d", len(store.created))
	}
	if store.created[0].ImageURL != "" {
		t.Errorf("expected record without image URL, got %q", store.created[0].ImageURL)
	}
}

func TestScreenCreateFailure(t *testing.T) {
	store := &fakeScreeningStore{createErr: errors.New("db down")}
	cls := &fakeClassifier{available: true, pred: classifier.Prediction{Positive: true, RawScore: 0.9, Confidence: 0.9}}

	svc := newTestService(&fakeRepository{store: store}, cls, &fakeRedis{}, &fakeS3{})

	_, err := svc.Screen(context.Background(), []byte("fake image bytes"), "retina.png", "upload")
	if !errors.Is(err, screening.ErrCreateScreening) {
		t.Fatalf("expected ErrCreateScreening, got %v", err)
	}
}

func TestGetScreeningByID(t *testing.T) {
	store := &fakeScreeningStore{records: map[string]entity.Screening{
		"01ABC": {
			ID:       "01ABC",
			Label:    classifier.LabelNegative,
			ImageURL: "https://bucket.s3.amazonaws.com/retina.png",
		},
	}}

	svc := newTestService(&fakeRepository{store: store}, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	result, err := svc.GetScreeningByID(context.Background(), "01ABC")
	if err != nil {
		t.Fatalf("GetScreeningByID returned error: %v", err)
	}
	if result.ID != "01ABC" {
		t.Errorf("unexpected id %q", result.ID)
	}
	if result.ImageURL != "https://bucket.s3.amazonaws.com/retina.png?signed" {
		t.Errorf("expected presigned URL, got %q", result.ImageURL)
	}
}

func TestGetScreeningByIDNotFound(t *testing.T) {
	svc := newTestService(&fakeRepository{store: &fakeScreeningStore{}}, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	_, err := svc.GetScreeningByID(context.Background(), "missing")
	if !errors.Is(err, screening.ErrScreeningNotFound) {
		t.Fatalf("expected ErrScreeningNotFound, got %v", err)
	}
}

func TestGetAllScreeningsClampsPagination(t *testing.T) {
	store := &fakeScreeningStore{records: map[string]entity.Screening{
		"01ABC": {ID: "01ABC", Label: classifier.LabelNegative},
	}}

	svc := newTestService(&fakeRepository{store: store}, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	result, err := svc.GetAllScreenings(context.Background(), 0, 500)
	if err != nil {
		t.Fatalf("GetAllScreenings returned error: %v", err)
	}
	if store.lastLimit != 10 || store.lastOffset != 0 {
		t.Errorf("expected clamped limit=10 offset=0, got limit=%d offset=%d", store.lastLimit, store.lastOffset)
	}
	if result.Total != 1 || len(result.Screenings) != 1 {
		t.Errorf("unexpected result: total=%d len=%d", result.Total, len(result.Screenings))
	}
}

func TestDeleteScreening(t *testing.T) {
	store := &fakeScreeningStore{records: map[string]entity.Screening{
		"01ABC": {ID: "01ABC"},
	}}
	repo := &fakeRepository{store: store}

	svc := newTestService(repo, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	if err := svc.DeleteScreening(context.Background(), "01ABC"); err != nil {
		t.Fatalf("DeleteScreening returned error: %v", err)
	}
	if _, ok := store.records["01ABC"]; ok {
		t.Error("record should be deleted")
	}
	if repo.commits != 1 {
		t.Errorf("expected one commit, got %d", repo.commits)
	}
}

func TestDeleteScreeningNotFound(t *testing.T) {
	svc := newTestService(&fakeRepository{store: &fakeScreeningStore{}}, &fakeClassifier{available: true}, &fakeRedis{}, &fakeS3{})

	err := svc.DeleteScreening(context.Background(), "missing")
	if !errors.Is(err, screening.ErrScreeningNotFound) {
		t.Fatalf("expected ErrScreeningNotFound, got %v", err)
	}
}

func TestProcessFrame(t *testing.T) {
	cls := &fakeClassifier{available: true, pred: classifier.Prediction{Positive: true, RawScore: 0.83, Confidence: 0.83}}

	svc := newTestService(&fakeRepository{store: &fakeScreeningStore{}}, cls, &fakeRedis{}, &fakeS3{})

	result, err := svc.ProcessFrame([]byte("frame bytes"))
	if err != nil {
		t.Fatalf("ProcessFrame returned error: %v", err)
	}
	if result.Prediction != classifier.LabelPositive {
		t.Errorf("unexpected label %q", result.Prediction)
	}
	if result.RawValue != 0.83 || result.Confidence != 0.83 {
		t.Errorf("unexpected scores: raw=%v confidence=%v", result.RawValue, result.Confidence)
	}
}

func TestProcessFrameError(t *testing.T) {
	cls := &fakeClassifier{available: true, err: classifier.ErrImageDecode}

	svc := newTestService(&fakeRepository{store: &fakeScreeningStore{}}, cls, &fakeRedis{}, &fakeS3{})

	if _, err := svc.ProcessFrame([]byte("junk")); !errors.Is(err, classifier.ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}

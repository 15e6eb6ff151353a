package screeningService

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/screening"
	"github.com/hudaib2009/AI-DR-Assistant/internal/entity"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/classifier"
	contextPkg "github.com/hudaib2009/AI-DR-Assistant/pkg/context"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const predictionCacheTTL = 24 * time.Hour

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cachedPrediction is the Redis payload keyed by image SHA-256. Preprocessing
// and inference are deterministic, so identical bytes replay the same result.
type cachedPrediction struct {
	Positive   bool    `json:"positive"`
	RawValue   float64 `json:"raw_value"`
	Confidence float64 `json:"confidence"`
	ModelName  string  `json:"model_name"`
}

func (s *screeningService) Screen(ctx context.Context, imageBytes []byte, fileName string, source string) (*screening.ScreeningResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(imageBytes) == 0 {
		return nil, screening.ErrEmptyImage
	}

	if !s.classifier.Available() {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("Screening requested while model is unavailable")
		return nil, classifier.ErrModelUnavailable
	}

	imageHash := s.utils.HashImageBytes(imageBytes)

	pred, modelName, cached := s.lookupCachedPrediction(ctx, imageHash, requestID)
	if !cached {
		freshPred, err := s.classifier.Predict(imageBytes)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id":   requestID,
				"image_sha256": imageHash,
				"error":        err.Error(),
			}).Warn("Prediction failed")
			return nil, err
		}
		pred = freshPred
		modelName = s.classifier.ModelName()
	}

	var imageURL string
	location, err := s.s3Client.UploadImage(fileName, imageBytes, http.DetectContentType(imageBytes))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"file_name":  fileName,
			"error":      err.Error(),
		}).Warn("Failed to upload screening image, continuing without archive copy")
	} else {
		imageURL = location
	}

	screeningID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return nil, err
	}

	now := time.Now()

	record := entity.Screening{
		ID:          screeningID,
		Label:       pred.Label(),
		RawScore:    pred.RawScore,
		Confidence:  pred.Confidence,
		ModelName:   modelName,
		ImageSHA256: imageHash,
		ImageURL:    imageURL,
		Source:      source,
		CreatedAt:   now,
	}

	repo, err := s.screeningRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}
	defer repo.Rollback()

	if err := repo.Screenings.CreateScreening(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create screening")
		return nil, screening.ErrCreateScreening
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return nil, screening.ErrCreateScreening
	}

	if !cached {
		s.storeCachedPrediction(ctx, imageHash, pred, modelName, requestID)
	}

	response := &screening.ScreeningResponse{
		ID:         record.ID,
		Prediction: record.Label,
		RawValue:   record.RawScore,
		Confidence: record.Confidence,
		Model:      record.ModelName,
		Cached:     cached,
		CreatedAt:  record.CreatedAt,
	}

	if record.ImageURL != "" {
		presignedURL, err := s.s3Client.PresignUrl(record.ImageURL)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"image_url":  record.ImageURL,
				"error":      err.Error(),
			}).Warn("Failed to create presigned URL for image")
		} else {
			response.ImageURL = presignedURL
		}
	}

	return response, nil
}

func (s *screeningService) lookupCachedPrediction(ctx context.Context, imageHash, requestID string) (classifier.Prediction, string, bool) {
	payload, err := s.redisServer.GetPrediction(ctx, imageHash)
	if err != nil || payload == "" {
		return classifier.Prediction{}, "", false
	}

	var cp cachedPrediction
	if err := json.UnmarshalFromString(payload, &cp); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"image_sha256": imageHash,
			"error":        err.Error(),
		}).Warn("Failed to decode cached prediction, re-running inference")
		return classifier.Prediction{}, "", false
	}

	modelName := cp.ModelName
	if modelName == "" {
		modelName = s.classifier.ModelName()
	}

	return classifier.Prediction{
		Positive:   cp.Positive,
		RawScore:   cp.RawValue,
		Confidence: cp.Confidence,
	}, modelName, true
}

func (s *screeningService) storeCachedPrediction(ctx context.Context, imageHash string, pred classifier.Prediction, modelName, requestID string) {
	payload, err := json.MarshalToString(cachedPrediction{
		Positive:   pred.Positive,
		RawValue:   pred.RawScore,
		Confidence: pred.Confidence,
		ModelName:  modelName,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"image_sha256": imageHash,
			"error":        err.Error(),
		}).Warn("Failed to encode prediction for cache")
		return
	}

	if err := s.redisServer.SetPrediction(ctx, imageHash, payload, predictionCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"image_sha256": imageHash,
			"error":        err.Error(),
		}).Warn("Failed to cache prediction")
	}
}

func (s *screeningService) GetScreeningByID(ctx context.Context, id string) (*screening.ScreeningResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.screeningRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	record, err := repo.Screenings.GetScreeningByID(ctx, id)
	if err != nil {
		if errors.Is(err, screening.ErrScreeningNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("Screening not found")
		} else {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
				"error":      err.Error(),
			}).Error("Failed to get screening")
		}
		return nil, err
	}

	response := s.makeScreeningResponse(record, requestID)

	return &response, nil
}

func (s *screeningService) GetAllScreenings(ctx context.Context, page, limit int) (*screening.ScreeningListResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.screeningRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	offset := (page - 1) * limit

	records, total, err := repo.Screenings.GetAllScreenings(ctx, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"page":       page,
			"limit":      limit,
			"error":      err.Error(),
		}).Error("Failed to get screenings")
		return nil, err
	}

	response := &screening.ScreeningListResponse{
		Screenings: make([]screening.ScreeningResponse, 0, len(records)),
		Total:      total,
	}

	for _, record := range records {
		response.Screenings = append(response.Screenings, s.makeScreeningResponse(record, requestID))
	}

	return response, nil
}

func (s *screeningService) DeleteScreening(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.screeningRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	existing, err := repo.Screenings.GetScreeningByID(ctx, id)
	if err != nil {
		if errors.Is(err, screening.ErrScreeningNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
			}).Warn("Screening not found")
		} else {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
				"error":      err.Error(),
			}).Error("Failed to get screening")
		}
		return err
	}

	if err := repo.Screenings.DeleteScreening(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("Failed to delete screening")
		return screening.ErrDeleteScreening
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return screening.ErrDeleteScreening
	}

	if existing.ImageURL != "" {
		parts := strings.Split(existing.ImageURL, "/")
		if len(parts) > 0 {
			fileName := parts[len(parts)-1]
			go func() {
				if err := s.s3Client.DeleteFile(fileName); err != nil {
					s.log.WithFields(logrus.Fields{
						"request_id": requestID,
						"file_name":  fileName,
						"error":      err.Error(),
					}).Warn("Failed to delete screening image")
				}
			}()
		}
	}

	return nil
}

func (s *screeningService) ProcessFrame(frame []byte) (*screening.FramePrediction, error) {
	pred, err := s.classifier.Predict(frame)
	if err != nil {
		return nil, err
	}

	return &screening.FramePrediction{
		Prediction: pred.Label(),
		RawValue:   pred.RawScore,
		Confidence: pred.Confidence,
	}, nil
}

func (s *screeningService) makeScreeningResponse(record entity.Screening, requestID string) screening.ScreeningResponse {
	response := screening.ScreeningResponse{
		ID:         record.ID,
		Prediction: record.Label,
		RawValue:   record.RawScore,
		Confidence: record.Confidence,
		Model:      record.ModelName,
		CreatedAt:  record.CreatedAt,
	}

	if record.ImageURL != "" {
		presignedURL, err := s.s3Client.PresignUrl(record.ImageURL)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         record.ID,
				"image_url":  record.ImageURL,
				"error":      err.Error(),
			}).Warn("Failed to create presigned URL for image")
		} else {
			response.ImageURL = presignedURL
		}
	}

	return response
}

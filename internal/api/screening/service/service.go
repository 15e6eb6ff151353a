package screeningService

import (
	"context"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/screening"
	screeningRepository "github.com/hudaib2009/AI-DR-Assistant/internal/api/screening/repository"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/classifier"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/redis"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/s3"
	"github.com/hudaib2009/AI-DR-Assistant/pkg/utils"
	"github.com/sirupsen/logrus"
)

type IScreeningService interface {
	Screen(ctx context.Context, imageBytes []byte, fileName string, source string) (*screening.ScreeningResponse, error)
	GetScreeningByID(ctx context.Context, id string) (*screening.ScreeningResponse, error)
	GetAllScreenings(ctx context.Context, page, limit int) (*screening.ScreeningListResponse, error)
	DeleteScreening(ctx context.Context, id string) error
	ProcessFrame(frame []byte) (*screening.FramePrediction, error)
}

type screeningService struct {
	log           *logrus.Logger
	screeningRepo screeningRepository.Repository
	classifier    classifier.IClassifier
	redisServer   redis.IRedis
	s3Client      s3.ItfS3
	utils         utils.IUtils
}

func New(
	log *logrus.Logger,
	screeningRepo screeningRepository.Repository,
	classifier classifier.IClassifier,
	redisServer redis.IRedis,
	s3Client s3.ItfS3,
	utils utils.IUtils,
) IScreeningService {
	return &screeningService{
		log:           log,
		screeningRepo: screeningRepo,
		classifier:    classifier,
		redisServer:   redisServer,
		s3Client:      s3Client,
		utils:         utils,
	}
}

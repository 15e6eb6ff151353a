package classifier

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
)

const positiveThreshold = 0.5

const (
	LabelPositive = "Danger Detected"
	LabelNegative = "Normal"
)

type Prediction struct {
	Positive   bool
	RawScore   float64
	Confidence float64
}

func (p Prediction) Label() string {
	if p.Positive {
		return LabelPositive
	}
	return LabelNegative
}

type IClassifier interface {
	Available() bool
	ModelName() string
	Preprocess(imageBytes []byte) (*Tensor, error)
	Infer(t *Tensor) (float64, error)
	Predict(imageBytes []byte) (Prediction, error)
	Close()
}

// Pipeline is the shared classifier handle. It carries no per-request state,
// so a single instance serves all requests.
type Pipeline struct {
	model     Model
	modelName string
	log       *logrus.Logger
}

func New(model Model, modelName string, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		model:     model,
		modelName: modelName,
		log:       logger,
	}
}

// Load deserializes the model once at startup. A load failure is logged and
// leaves the pipeline in the unavailable state instead of stopping the
// process; requests then fail with ErrModelUnavailable until restart.
func Load(modelPath, modelName string, logger *logrus.Logger) *Pipeline {
	model, err := loadONNXModel(modelPath)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"model_path": modelPath,
		}).Error("Failed to load classifier model, predictions will be unavailable")
		return New(nil, modelName, logger)
	}

	logger.WithFields(logrus.Fields{
		"model_path": modelPath,
		"model_name": modelName,
	}).Info("Classifier model loaded")

	return New(model, modelName, logger)
}

func (p *Pipeline) Available() bool {
	return p.model != nil
}

func (p *Pipeline) ModelName() string {
	return p.modelName
}

// Preprocess turns raw image bytes into the model input tensor: decode,
// grayscale, resize to ImageSize×ImageSize, scale to [0, 1]. The same bytes
// always produce the same tensor, and the input slice is never written to.
func (p *Pipeline) Preprocess(imageBytes []byte) (*Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to decode image")
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	gray := toGrayscale(img)
	resized := resize.Resize(ImageSize, ImageSize, gray, resize.Lanczos3)

	t := newTensor()
	min := resized.Bounds().Min
	i := 0
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			c := color.GrayModel.Convert(resized.At(min.X+x, min.Y+y)).(color.Gray)
			t.data[i] = float32(c.Y) / 255
			i++
		}
	}

	return t, nil
}

func toGrayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}

// Infer runs one forward pass and returns the raw sigmoid score.
func (p *Pipeline) Infer(t *Tensor) (float64, error) {
	if !p.Available() {
		return 0, ErrModelUnavailable
	}

	if t == nil || len(t.data) != tensorLen {
		return 0, fmt.Errorf("%w: input tensor has wrong shape", ErrInference)
	}

	score, err := p.model.Run(t.data)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"error":      err.Error(),
			"model_name": p.modelName,
		}).Error("Model forward pass failed")
		return 0, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return float64(score), nil
}

// Classify maps a raw score onto a labeled prediction. The positive class
// requires the score to strictly exceed 0.5; exactly 0.5 stays negative.
// Confidence is the probability of the chosen class, never below 0.5.
func Classify(rawScore float64) Prediction {
	p := Prediction{RawScore: rawScore}
	if rawScore > positiveThreshold {
		p.Positive = true
		p.Confidence = rawScore
	} else {
		p.Confidence = 1 - rawScore
	}
	return p
}

// Predict is the full pipeline over raw image bytes. Model availability is
// checked before any decoding work, and a decode failure never reaches the
// model.
func (p *Pipeline) Predict(imageBytes []byte) (Prediction, error) {
	if !p.Available() {
		return Prediction{}, ErrModelUnavailable
	}

	t, err := p.Preprocess(imageBytes)
	if err != nil {
		return Prediction{}, err
	}

	raw, err := p.Infer(t)
	if err != nil {
		return Prediction{}, err
	}

	return Classify(raw), nil
}

func (p *Pipeline) Close() {
	if p.model == nil {
		return
	}

	if err := p.model.Close(); err != nil {
		p.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Failed to release classifier model")
	}
}

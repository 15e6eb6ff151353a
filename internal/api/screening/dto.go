package screening

import "time"

type PredictRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type ScreeningResponse struct {
	ID         string    `json:"id"`
	Prediction string    `json:"prediction"`
	RawValue   float64   `json:"raw_value"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model"`
	ImageURL   string    `json:"image_url,omitempty"`
	Cached     bool      `json:"cached,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ScreeningListResponse struct {
	Screenings []ScreeningResponse `json:"screenings"`
	Total      int                 `json:"total"`
}

type FramePrediction struct {
	Prediction string  `json:"prediction"`
	RawValue   float64 `json:"raw_value"`
	Confidence float64 `json:"confidence"`
}

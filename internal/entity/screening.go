package entity

import "time"

type Screening struct {
	ID          string    `db:"id"`
	Label       string    `db:"label"`
	RawScore    float64   `db:"raw_score"`
	Confidence  float64   `db:"confidence"`
	ModelName   string    `db:"model_name"`
	ImageSHA256 string    `db:"image_sha256"`
	ImageURL    string    `db:"image_url"`
	Source      string    `db:"source"`
	CreatedAt   time.Time `db:"created_at"`
}

package screeningRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hudaib2009/AI-DR-Assistant/internal/api/screening"
	"github.com/hudaib2009/AI-DR-Assistant/internal/entity"
	contextPkg "github.com/hudaib2009/AI-DR-Assistant/pkg/context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ScreeningDB struct {
	ID          sql.NullString  `db:"id"`
	Label       sql.NullString  `db:"label"`
	RawScore    sql.NullFloat64 `db:"raw_score"`
	Confidence  sql.NullFloat64 `db:"confidence"`
	ModelName   sql.NullString  `db:"model_name"`
	ImageSHA256 sql.NullString  `db:"image_sha256"`
	ImageURL    sql.NullString  `db:"image_url"`
	Source      sql.NullString  `db:"source"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r *screeningsRepository) CreateScreening(ctx context.Context, screening entity.Screening) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id":           screening.ID,
		"label":        screening.Label,
		"raw_score":    screening.RawScore,
		"confidence":   screening.Confidence,
		"model_name":   screening.ModelName,
		"image_sha256": screening.ImageSHA256,
		"image_url":    screening.ImageURL,
		"source":       screening.Source,
		"created_at":   screening.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateScreening, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateScreening")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating screening")
		return err
	}

	return nil
}

func (r *screeningsRepository) GetScreeningByID(ctx context.Context, id string) (entity.Screening, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var row ScreeningDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetScreeningByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetScreeningByID named query preparation err")
		return entity.Screening{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("GetScreeningByID no rows found")
			return entity.Screening{}, screening.ErrScreeningNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetScreeningByID execution err")
		return entity.Screening{}, err
	}

	return r.makeScreening(row), nil
}

func (r *screeningsRepository) GetAllScreenings(ctx context.Context, limit, offset int) ([]entity.Screening, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var rows []ScreeningDB
	var total int

	countQuery, countArgs, err := sqlx.Named(queryCountAllScreenings, map[string]interface{}{})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountAllScreenings named query preparation err")
		return nil, 0, err
	}

	countQuery = r.q.Rebind(countQuery)

	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountAllScreenings execution err")
		return nil, 0, err
	}

	argsKV := map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	}

	query, args, err := sqlx.Named(queryGetAllScreenings, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAllScreenings named query preparation err")
		return nil, 0, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAllScreenings execution err")
		return nil, 0, err
	}

	var screenings []entity.Screening
	for _, row := range rows {
		screenings = append(screenings, r.makeScreening(row))
	}

	return screenings, total, nil
}

func (r *screeningsRepository) DeleteScreening(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)
	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryDeleteScreening, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteScreening named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteScreening execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteScreening rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("DeleteScreening no rows affected")
		return screening.ErrScreeningNotFound
	}

	return nil
}

func (r *screeningsRepository) makeScreening(row ScreeningDB) entity.Screening {
	return entity.Screening{
		ID:          row.ID.String,
		Label:       row.Label.String,
		RawScore:    row.RawScore.Float64,
		Confidence:  row.Confidence.Float64,
		ModelName:   row.ModelName.String,
		ImageSHA256: row.ImageSHA256.String,
		ImageURL:    row.ImageURL.String,
		Source:      row.Source.String,
		CreatedAt:   row.CreatedAt,
	}
}

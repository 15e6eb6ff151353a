package screeningRepository

const (
	queryCreateScreening = `
		INSERT INTO screenings (
			id,
			label,
			raw_score,
			confidence,
			model_name,
			image_sha256,
			image_url,
			source,
			created_at
		) VALUES (
			:id,
			:label,
			:raw_score,
			:confidence,
			:model_name,
			:image_sha256,
			:image_url,
			:source,
			:created_at
		)
	`

	queryGetScreeningByID = `
		SELECT
			id,
			label,
			raw_score,
			confidence,
			model_name,
			image_sha256,
			image_url,
			source,
			created_at
		FROM screenings
		WHERE id = :id
	`

	queryGetAllScreenings = `
		SELECT
			id,
			label,
			raw_score,
			confidence,
			model_name,
			image_sha256,
			image_url,
			source,
			created_at
		FROM screenings
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountAllScreenings = `
		SELECT COUNT(*)
		FROM screenings
	`

	queryDeleteScreening = `
		DELETE FROM screenings
		WHERE id = :id
	`
)

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/repository"
)

var _ repository.VideoRepository = (*videoRepo)(nil)

type videoRepo struct{ pool *pgxpool.Pool }

func NewVideoRepo(pool *pgxpool.Pool) *videoRepo {
	return &videoRepo{pool: pool}
}

const videoColumns = `id, owner_id, script, avatar_id, voice_id, orientation, width, height, raw_url, public_url, status, created_at`

func (r *videoRepo) Save(ctx context.Context, tx repository.Tx, v *model.VideoRecord) error {
	const q = `
INSERT INTO videos (` + videoColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		v.ID, v.OwnerID, v.Script, v.AvatarID, v.VoiceID, string(v.Orientation),
		v.Dims.Width, v.Dims.Height, v.RawURL, v.PublicURL, v.Status, v.CreatedAt)
	return err
}

func (r *videoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.VideoRecord, error) {
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1;`
	v, err := scanVideo(queryRow(ctx, r.pool, tx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *videoRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error) {
	q := `SELECT ` + videoColumns + ` FROM videos WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if !since.IsZero() {
		args = append(args, since)
		q += ` AND created_at >= $2`
	}
	if !until.IsZero() {
		args = append(args, until)
		if len(args) == 3 {
			q += ` AND created_at < $3`
		} else {
			q += ` AND created_at < $2`
		}
	}
	args = append(args, limit)
	switch len(args) {
	case 2:
		q += ` ORDER BY created_at DESC LIMIT $2;`
	case 3:
		q += ` ORDER BY created_at DESC LIMIT $3;`
	default:
		q += ` ORDER BY created_at DESC LIMIT $4;`
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *videoRepo) Delete(ctx context.Context, tx repository.Tx, ownerID, id string) error {
	const q = `DELETE FROM videos WHERE id = $1 AND owner_id = $2;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanVideo(row pgx.Row) (*model.VideoRecord, error) {
	v := &model.VideoRecord{}
	var orientation string
	err := row.Scan(&v.ID, &v.OwnerID, &v.Script, &v.AvatarID, &v.VoiceID, &orientation,
		&v.Dims.Width, &v.Dims.Height, &v.RawURL, &v.PublicURL, &v.Status, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.Orientation = model.Orientation(orientation)
	return v, nil
}

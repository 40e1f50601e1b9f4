package mysql

import (
	"context"
	"database/sql"
	"errors"

	"art-auction/internal/domain"
)

func (t *sqlTx) ArtworkByID(ctx context.Context, id string) (*domain.Artwork, error) {
	query := `
        SELECT id, title, description, artist, image_url, owner_id, created_at
        FROM artworks WHERE id = ?
    `

	var artwork domain.Artwork
	var ownerID sql.NullString

	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&artwork.ID, &artwork.Title, &artwork.Description, &artwork.Artist,
		&artwork.ImageURL, &ownerID, &artwork.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArtworkNotFound
	}
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		artwork.OwnerID = &ownerID.String
	}
	return &artwork, nil
}

func (t *sqlTx) CreateArtwork(ctx context.Context, artwork *domain.Artwork) error {
	query := `
        INSERT INTO artworks (id, title, description, artist, image_url, owner_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := t.tx.ExecContext(ctx, query,
		artwork.ID, artwork.Title, artwork.Description, artwork.Artist,
		artwork.ImageURL, artwork.OwnerID, artwork.CreatedAt)
	return err
}

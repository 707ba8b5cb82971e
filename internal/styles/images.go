package styles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

// UploadsPath is the URL prefix image files are served under.
const UploadsPath = "/uploads/"

// ImageRecord is a stored image row.
type ImageRecord struct {
	ID            int64     `json:"id"`
	StyleID       int64     `json:"style_id"`
	Filename      string    `json:"filename"`
	ThumbFilename string    `json:"thumb_filename"`
	Primary       bool      `json:"is_primary"`
	UploadedAt    time.Time `json:"upload_date"`
}

// Image returns the public view of the row.
func (r ImageRecord) Image() pricing.Image {
	img := pricing.Image{ID: r.ID, URL: UploadsPath + r.Filename, Primary: r.Primary}
	if r.ThumbFilename != "" {
		img.ThumbURL = UploadsPath + r.ThumbFilename
	}
	return img
}

// AddImage records an uploaded image. The first image of a style becomes its
// primary image.
func (s *Store) AddImage(ctx context.Context, styleID int64, filename, thumb string) (ImageRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("begin add image: %w", err)
	}
	defer tx.Rollback()

	var exists, hasImages bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM styles WHERE id = ?)`, styleID).Scan(&exists); err != nil {
		return ImageRecord{}, fmt.Errorf("check style %d: %w", styleID, err)
	}
	if !exists {
		return ImageRecord{}, fmt.Errorf("style %d: %w", styleID, ErrNotFound)
	}
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM style_images WHERE style_id = ?)`, styleID).Scan(&hasImages); err != nil {
		return ImageRecord{}, fmt.Errorf("check images of style %d: %w", styleID, err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO style_images (style_id, filename, thumb_filename, is_primary)
		VALUES (?, ?, ?, ?)
	`, styleID, filename, thumb, !hasImages)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("insert image for style %d: %w", styleID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return ImageRecord{}, fmt.Errorf("read image id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ImageRecord{}, fmt.Errorf("commit add image: %w", err)
	}
	return ImageRecord{ID: id, StyleID: styleID, Filename: filename, ThumbFilename: thumb, Primary: !hasImages, UploadedAt: time.Now().UTC()}, nil
}

// ListImages returns the images of a style, primary first.
func (s *Store) ListImages(ctx context.Context, styleID int64) ([]ImageRecord, error) {
	return listImages(ctx, s.db, styleID)
}

func listImages(ctx context.Context, q queryer, styleID int64) ([]ImageRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, style_id, filename, thumb_filename, is_primary, upload_date
		FROM style_images
		WHERE style_id = ?
		ORDER BY is_primary DESC, id
	`, styleID)
	if err != nil {
		return nil, fmt.Errorf("query images of style %d: %w", styleID, err)
	}
	defer rows.Close()

	images := make([]ImageRecord, 0)
	for rows.Next() {
		var img ImageRecord
		var uploaded string
		if err := rows.Scan(&img.ID, &img.StyleID, &img.Filename, &img.ThumbFilename, &img.Primary, &uploaded); err != nil {
			return nil, fmt.Errorf("scan image of style %d: %w", styleID, err)
		}
		img.UploadedAt = parseTimestamp(uploaded)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images of style %d: %w", styleID, err)
	}
	return images, nil
}

// DeleteImage removes an image row and returns it so the caller can remove
// the files. Deleting the primary image promotes the oldest remaining one.
func (s *Store) DeleteImage(ctx context.Context, styleID, imageID int64) (ImageRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("begin delete image: %w", err)
	}
	defer tx.Rollback()

	var img ImageRecord
	var uploaded string
	err = tx.QueryRowContext(ctx, `
		SELECT id, style_id, filename, thumb_filename, is_primary, upload_date
		FROM style_images
		WHERE id = ? AND style_id = ?
	`, imageID, styleID).Scan(&img.ID, &img.StyleID, &img.Filename, &img.ThumbFilename, &img.Primary, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return ImageRecord{}, fmt.Errorf("image %d of style %d: %w", imageID, styleID, ErrNotFound)
	}
	if err != nil {
		return ImageRecord{}, fmt.Errorf("query image %d: %w", imageID, err)
	}
	img.UploadedAt = parseTimestamp(uploaded)

	if _, err := tx.ExecContext(ctx, `DELETE FROM style_images WHERE id = ?`, imageID); err != nil {
		return ImageRecord{}, fmt.Errorf("delete image %d: %w", imageID, err)
	}
	if img.Primary {
		if _, err := tx.ExecContext(ctx, `
			UPDATE style_images SET is_primary = TRUE
			WHERE id = (SELECT id FROM style_images WHERE style_id = ? ORDER BY id LIMIT 1)
		`, styleID); err != nil {
			return ImageRecord{}, fmt.Errorf("promote primary image of style %d: %w", styleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImageRecord{}, fmt.Errorf("commit delete image: %w", err)
	}
	return img, nil
}

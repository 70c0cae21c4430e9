package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aidosk/tournament-manager/models"
	"github.com/aidosk/tournament-manager/storage"
)

// withTransaction wraps fn in an explicit transaction with rollback on error
// or panic. Every multi-step mutation in this package goes through here.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

func populateTournamentLogoURL(t *models.Tournament, uploader storage.FileUploader) {
	if t != nil && t.LogoKey != nil && *t.LogoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*t.LogoKey); url != "" {
			t.LogoURL = &url
		}
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*team.LogoKey); url != "" {
			team.LogoURL = &url
		}
	}
}

// extensionForContentType maps an image content type to a file extension for
// logo object keys.
func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	default:
		if parts := strings.Split(contentType, "/"); len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLogoType, contentType)
	}
}

// Package photo uploads listing images to the external image host.
package photo

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	cldconfig "github.com/cloudinary/cloudinary-go/v2/config"

	"yariga/internal/config"
	apperrors "yariga/internal/errors"
)

// Store accepts an image payload and returns the URL it is served from.
// The payload is a remote URL or a base64 data URI.
type Store interface {
	Upload(ctx context.Context, photo string) (string, error)
}

// FromConfig returns a Cloudinary store when credentials are configured and
// a Passthrough store otherwise.
func FromConfig(cfg *config.Config) (Store, error) {
	if !cfg.CloudinaryEnabled() {
		return Passthrough{}, nil
	}
	return NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
}

// Cloudinary uploads to a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary-backed Store.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	conf, err := cldconfig.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return newCloudinary(conf, folder)
}

func newCloudinary(conf *cldconfig.Configuration, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload sends photo to Cloudinary. An empty payload uploads nothing and
// returns an empty URL.
func (c *Cloudinary) Upload(ctx context.Context, photo string) (string, error) {
	if photo == "" {
		return "", nil
	}
	resp, err := c.cld.Upload.Upload(ctx, photo, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPhotoUpload, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", apperrors.ErrPhotoUpload, resp.Error.Message)
	}
	if resp.SecureURL != "" {
		return resp.SecureURL, nil
	}
	return resp.URL, nil
}

// Passthrough is used when no image host is configured: photos that are
// already hosted are kept at their URL, anything else is rejected.
type Passthrough struct{}

// Upload returns photo unchanged when it is an http(s) URL.
func (Passthrough) Upload(_ context.Context, photo string) (string, error) {
	if photo == "" {
		return "", nil
	}
	if strings.HasPrefix(photo, "http://") || strings.HasPrefix(photo, "https://") {
		return photo, nil
	}
	return "", fmt.Errorf("%w: no image host configured for inline photo data", apperrors.ErrPhotoUpload)
}

package media_storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

const cloudinaryRootFolder = "profile-portal"

type cloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.FileStorage, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("connect Cloudinary successfully.")
	return &cloudinaryAdapter{cld: cld, logger: log}, nil
}

// Store uploads photos as images and resumes as raw assets. Raw public IDs
// keep their extension, image public IDs do not.
func (a *cloudinaryAdapter) Store(ctx context.Context, slot upload.Slot, fileName string, file io.Reader) (string, error) {
	publicID := fileName
	resourceType := "raw"
	if slot == upload.SlotProfilePhoto {
		publicID = strings.TrimSuffix(fileName, path.Ext(fileName))
		resourceType = "image"
	}

	result, err := a.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       cloudinaryRootFolder + "/" + slot.Dir(),
		ResourceType: resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, ref string) error {
	publicID, resourceType, err := parseDeliveryURL(ref)
	if err != nil {
		return err
	}
	_, err = a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}

// parseDeliveryURL recovers the public ID and resource type from a delivery
// URL of the form
// https://res.cloudinary.com/<cloud>/<type>/upload/[v<version>/]<public id>[.<ext>]
func parseDeliveryURL(ref string) (publicID, resourceType string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("parse cloudinary url: %w", err)
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) < 5 || parts[2] != "upload" {
		return "", "", fmt.Errorf("not a cloudinary delivery url: %q", ref)
	}
	resourceType = parts[1]
	rest := parts[3:]
	if v := rest[0]; len(v) > 1 && v[0] == 'v' && strings.Trim(v[1:], "0123456789") == "" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", "", fmt.Errorf("cloudinary url has no public id: %q", ref)
	}
	publicID = strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return publicID, resourceType, nil
}

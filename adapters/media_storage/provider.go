package media_storage

import (
	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// NewFileStorage picks the storage backend named by storage.provider.
func NewFileStorage(cfg config.Config, log logger.Logger) (service.FileStorage, error) {
	if cfg.Storage.Provider == "cloudinary" {
		return NewCloudinaryAdapter(cfg, log)
	}
	return NewLocalAdapter(cfg.Upload.Dir, log)
}

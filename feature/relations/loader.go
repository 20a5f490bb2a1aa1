package relations

import (
	"relation-manager/core/archive"
	"relation-manager/core/gormstore"
	"relation-manager/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the relations feature. store may be nil when the database
// is unavailable, which disables the feature.
func NewFeature(store *gormstore.Store, archiver *archive.Archiver, cfg reconcile.Config, logger *zap.Logger) *Feature {
	svc := NewService(store, archiver, cfg, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "relations"
}

// IsEnabled reports whether a database is available.
func (f *Feature) IsEnabled() bool {
	return f.service.store != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

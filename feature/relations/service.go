package relations

import (
	"context"
	"errors"
	"fmt"

	"relation-manager/core/archive"
	"relation-manager/core/gormstore"
	"relation-manager/core/reconcile"

	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned by history lookups when no archive is configured.
var ErrArchiveDisabled = errors.New("reconciliation archive is disabled")

// errWithheld rolls back a transaction whose batch failed validation.
var errWithheld = errors.New("validation withheld the save")

// ApplyRequest describes one reconciliation of a parent's relation.
type ApplyRequest struct {
	ParentType string
	ParentID   string
	Relation   string
	Payload    reconcile.Incoming
	DryRun     bool
	Confirmed  bool
	RayID      string
}

// ApplyResponse is the outcome of Apply.
type ApplyResponse struct {
	Relation   gormstore.RelationInfo     `json:"relation"`
	Result     *reconcile.ReconcileResult `json:"result"`
	ArchiveKey string                     `json:"archive_key,omitempty"`
}

// ChildrenResponse lists the children currently reachable through a relation.
type ChildrenResponse struct {
	Relation gormstore.RelationInfo `json:"relation"`
	Children []reconcile.Child      `json:"children"`
}

// Service runs reconciliations against the database, one transaction each.
type Service struct {
	store    *gormstore.Store
	archiver *archive.Archiver
	cfg      reconcile.Config
	logger   *zap.Logger
}

// NewService creates a new relations service. archiver may be nil.
func NewService(store *gormstore.Store, archiver *archive.Archiver, cfg reconcile.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Describe resolves the relation of a parent type.
func (s *Service) Describe(parentType, relation string) (gormstore.RelationInfo, error) {
	model, err := s.store.Registry().New(parentType)
	if err != nil {
		return gormstore.RelationInfo{}, err
	}
	return s.store.Describe(model, relation)
}

// Relations lists the collection relations of a parent type.
func (s *Service) Relations(parentType string) ([]gormstore.RelationInfo, error) {
	model, err := s.store.Registry().New(parentType)
	if err != nil {
		return nil, err
	}
	return s.store.Relations(model)
}

// Children returns the children linked to the parent now, ordered by identifier.
func (s *Service) Children(ctx context.Context, parentType, parentID, relation string) (*ChildrenResponse, error) {
	info, err := s.Describe(parentType, relation)
	if err != nil {
		return nil, err
	}
	parent, err := s.store.Find(ctx, info.ParentType, parentID)
	if err != nil {
		return nil, err
	}
	children, err := s.store.QueryRelation(parent, info.Name).OrderByIdentifierAscending().All(ctx)
	if err != nil {
		return nil, err
	}
	return &ChildrenResponse{Relation: info, Children: children}, nil
}

// Apply reconciles the relation against req.Payload inside one transaction.
// A batch withheld by validation is rolled back, deletions included, and
// reported through Result.Saved rather than an error.
func (s *Service) Apply(ctx context.Context, req ApplyRequest, log *zap.Logger) (*ApplyResponse, error) {
	if log == nil {
		log = s.logger
	}
	info, err := s.Describe(req.ParentType, req.Relation)
	if err != nil {
		return nil, err
	}

	opts := reconcile.Options{IdentifierKey: s.cfg.IdentifierKey, Logger: log}
	runOpts := reconcile.ReconcileOptions{
		DryRun:    req.DryRun,
		Confirmed: req.Confirmed || !s.cfg.RequireConfirmation,
	}

	var result *reconcile.ReconcileResult
	err = s.store.Transaction(ctx, func(tx *gormstore.Store) error {
		parent, err := tx.Find(ctx, info.ParentType, req.ParentID)
		if err != nil {
			return err
		}
		result, err = run(ctx, tx, parent, info, req.Payload, opts, runOpts)
		if err != nil {
			return err
		}
		if result.Applied && !result.Saved {
			return errWithheld
		}
		return nil
	})
	if err != nil && !errors.Is(err, errWithheld) {
		return nil, err
	}

	resp := &ApplyResponse{Relation: info, Result: result}
	if errors.Is(err, errWithheld) {
		log.Info("Reconciliation rolled back", zap.Int("invalid", len(result.Invalid)))
		return resp, nil
	}

	if result.Applied && s.archiver != nil {
		key, err := s.archiver.Store(ctx, info.ParentType, req.ParentID, info.Name, req.RayID, result)
		if err != nil {
			log.Warn("Failed to archive reconciliation", zap.Error(err))
		} else {
			resp.ArchiveKey = key
		}
	}
	return resp, nil
}

func run(ctx context.Context, tx *gormstore.Store, parent reconcile.Entity, info gormstore.RelationInfo, payload reconcile.Incoming, opts reconcile.Options, runOpts reconcile.ReconcileOptions) (*reconcile.ReconcileResult, error) {
	switch info.Shape {
	case reconcile.ShapeOneToMany:
		r, err := reconcile.NewOneToMany(tx, parent, info.ChildType, info.Name, payload, opts)
		if err != nil {
			return nil, err
		}
		return r.Run(ctx, runOpts)
	case reconcile.ShapeManyToMany:
		universe := func() reconcile.Query { return tx.QueryAll(info.ChildType) }
		r, err := reconcile.NewManyToMany(tx, parent, info.ChildType, info.Name, universe, payload, opts)
		if err != nil {
			return nil, err
		}
		return r.Run(ctx, runOpts)
	default:
		return nil, fmt.Errorf("%w: %s", gormstore.ErrUnsupportedShape, info.Shape)
	}
}

// History lists archived reconciliations of a parent, newest first.
func (s *Service) History(ctx context.Context, parentType, parentID string) ([]archive.Entry, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	name, err := s.canonicalType(parentType)
	if err != nil {
		return nil, err
	}
	return s.archiver.List(ctx, name, parentID)
}

// HistoryEntry downloads one archived reconciliation.
func (s *Service) HistoryEntry(ctx context.Context, parentType, parentID, entry string) (*archive.Record, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	name, err := s.canonicalType(parentType)
	if err != nil {
		return nil, err
	}
	return s.archiver.Load(ctx, s.archiver.Key(name, parentID, entry))
}

func (s *Service) canonicalType(parentType string) (string, error) {
	model, err := s.store.Registry().New(parentType)
	if err != nil {
		return "", err
	}
	return gormstore.TypeName(model), nil
}

package relations

import (
	"bytes"
	"encoding/json"
	"errors"

	"relation-manager/core/archive"
	"relation-manager/core/gormstore"
	"relation-manager/core/logger"
	"relation-manager/core/middleware/rayid"
	"relation-manager/core/reconcile"
	"relation-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler handles HTTP requests for relation reconciliation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the relations routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/relations")
	group.Get("/:parent", h.HandleListRelations)
	group.Get("/:parent/:id/:relation", h.HandleGetChildren)
	group.Put("/:parent/:id/:relation", h.HandleReconcile)

	// history lives outside /relations so no relation name is reserved
	history := app.Group("/history")
	history.Get("/:parent/:id", h.HandleHistory)
	history.Get("/:parent/:id/:entry", h.HandleHistoryEntry)
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrContractViolation):
		return fiber.StatusConflict
	case errors.Is(err, gormstore.ErrNotFound), errors.Is(err, ErrArchiveDisabled):
		return fiber.StatusNotFound
	case errors.Is(err, gormstore.ErrUnknownType),
		errors.Is(err, gormstore.ErrUnknownRelation),
		errors.Is(err, gormstore.ErrUnsupportedShape),
		errors.Is(err, archive.ErrInvalidKey):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// DecodePayload accepts either the grouped payload or a bare array of records
// for childType.
func DecodePayload(body []byte, childType string) (reconcile.Incoming, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return reconcile.Incoming{}, nil
	}
	dec := func(v any) error {
		d := json.NewDecoder(bytes.NewReader(body))
		d.UseNumber()
		return d.Decode(v)
	}
	if body[0] == '[' {
		var records []reconcile.Record
		if err := dec(&records); err != nil {
			return nil, err
		}
		return reconcile.Incoming{childType: records}, nil
	}
	var payload reconcile.Incoming
	if err := dec(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// HandleListRelations lists the collection relations of a parent type.
// @Summary List Relations
// @Description List the has-many and many2many relations of a parent type.
// @Tags relations
// @Produce json
// @Param parent path string true "Parent type (e.g. 'Family')"
// @Success 200 {array} gormstore.RelationInfo "Relations"
// @Failure 400 {object} relations.ErrorResponse "Unknown type"
// @Router /relations/{parent} [get]
func (h *Handler) HandleListRelations(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	infos, err := h.service.Relations(c.Params("parent"))
	if err != nil {
		return fail(c, l, "Relation listing failed", err)
	}
	return c.JSON(infos)
}

// HandleGetChildren returns the children currently linked to a parent.
// @Summary Get Children
// @Description List the children reachable through a relation, ordered by identifier.
// @Tags relations
// @Produce json
// @Param parent path string true "Parent type (e.g. 'Family')"
// @Param id path string true "Parent identifier"
// @Param relation path string true "Relation name (e.g. 'members')"
// @Success 200 {object} relations.ChildrenResponse "Children"
// @Failure 400 {object} relations.ErrorResponse "Unknown type or relation"
// @Failure 404 {object} relations.ErrorResponse "Parent not found"
// @Router /relations/{parent}/{id}/{relation} [get]
func (h *Handler) HandleGetChildren(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	resp, err := h.service.Children(c.Context(), c.Params("parent"), c.Params("id"), c.Params("relation"))
	if err != nil {
		return fail(c, l, "Children lookup failed", err)
	}
	return c.JSON(resp)
}

// HandleReconcile reconciles a relation against the request body.
// @Summary Reconcile Relation
// @Description Make the children of a relation match the payload. Records without identifier are created,
// @Description records with one update that child, persisted children absent from the payload are deleted
// @Description (one-to-many) or unlinked (many-to-many). The body is either {"ChildType": [records]} or a bare array.
// @Tags relations
// @Accept json
// @Produce json
// @Param parent path string true "Parent type (e.g. 'Family')"
// @Param id path string true "Parent identifier"
// @Param relation path string true "Relation name (e.g. 'members')"
// @Param dry_run query bool false "Only compute the plan"
// @Param confirm query bool false "Confirm mutations when confirmation is required"
// @Param payload body object true "Incoming records"
// @Success 200 {object} relations.ApplyResponse "Reconciliation result"
// @Failure 400 {object} relations.ErrorResponse "Bad request"
// @Failure 404 {object} relations.ErrorResponse "Parent not found"
// @Failure 409 {object} relations.ErrorResponse "Payload contradicts persisted state"
// @Failure 422 {object} relations.ApplyResponse "Validation withheld the save"
// @Failure 500 {object} relations.ErrorResponse "Internal Server Error"
// @Router /relations/{parent}/{id}/{relation} [put]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c).With(
		zap.String("parent_type", c.Params("parent")),
		zap.String("parent_id", c.Params("id")),
		zap.String("relation", c.Params("relation")),
	)

	info, err := h.service.Describe(c.Params("parent"), c.Params("relation"))
	if err != nil {
		return fail(c, l, "Relation lookup failed", err)
	}
	payload, err := DecodePayload(c.Body(), info.ChildType)
	if err != nil {
		l.Info("Invalid payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid payload: " + err.Error()})
	}

	req := ApplyRequest{
		ParentType: c.Params("parent"),
		ParentID:   c.Params("id"),
		Relation:   c.Params("relation"),
		Payload:    payload,
		DryRun:     utils.ToBool(c.Query("dry_run")),
		Confirmed:  utils.ToBool(c.Query("confirm")),
		RayID:      rayid.From(c),
	}
	resp, err := h.service.Apply(c.Context(), req, l)
	if err != nil {
		return fail(c, l, "Reconciliation failed", err)
	}
	if resp.Result.Applied && !resp.Result.Saved {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}
	return c.JSON(resp)
}

// HandleHistory lists archived reconciliations of a parent.
// @Summary Reconciliation History
// @Description List archived reconciliations of a parent, newest first.
// @Tags relations
// @Produce json
// @Param parent path string true "Parent type (e.g. 'Family')"
// @Param id path string true "Parent identifier"
// @Param limit query int false "Return at most this many entries"
// @Success 200 {array} archive.Entry "Archived reconciliations"
// @Failure 404 {object} relations.ErrorResponse "Archive disabled"
// @Router /history/{parent}/{id} [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	entries, err := h.service.History(c.Context(), c.Params("parent"), c.Params("id"))
	if err != nil {
		return fail(c, l, "History lookup failed", err)
	}
	if limit := utils.ToInt(c.Query("limit")); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return c.JSON(entries)
}

// HandleHistoryEntry returns one archived reconciliation.
// @Summary Reconciliation History Entry
// @Description Download one archived reconciliation by object name.
// @Tags relations
// @Produce json
// @Param parent path string true "Parent type (e.g. 'Family')"
// @Param id path string true "Parent identifier"
// @Param entry path string true "Object name from the history listing"
// @Success 200 {object} archive.Record "Archived reconciliation"
// @Failure 404 {object} relations.ErrorResponse "Archive disabled"
// @Router /history/{parent}/{id}/{entry} [get]
func (h *Handler) HandleHistoryEntry(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	rec, err := h.service.HistoryEntry(c.Context(), c.Params("parent"), c.Params("id"), c.Params("entry"))
	if err != nil {
		return fail(c, l, "History entry lookup failed", err)
	}
	return c.JSON(rec)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

var validEntityTypes = map[string]struct{}{
	"email": {}, "phone": {}, "date": {}, "name": {}, "keyword": {},
}

type EntityHandler struct {
	log     *logger.Logger
	entRepo repos.EntityRepo
	idxRepo repos.SearchIndexRepo
}

func NewEntityHandler(log *logger.Logger, entRepo repos.EntityRepo, idxRepo repos.SearchIndexRepo) *EntityHandler {
	return &EntityHandler{
		log:     log.With("handler", "EntityHandler"),
		entRepo: entRepo,
		idxRepo: idxRepo,
	}
}

// List handles GET /entities?type=&limit=&offset=.
func (h *EntityHandler) List(c *gin.Context) {
	entityType := c.Query("type")
	if entityType == "" {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "type is required"))
		return
	}
	if _, ok := validEntityTypes[entityType]; !ok {
		response.Error(c, apperr.Newf(apperr.KindInvalidArgument, "unknown entity type %q", entityType))
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	if limit > 1000 {
		limit = 1000
	}

	entities, err := h.entRepo.ListByType(dbctx.Context{Ctx: c.Request.Context()}, entityType, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"type":     entityType,
		"count":    len(entities),
		"entities": entities,
	})
}

// SuggestEntities handles GET /suggest/entities?prefix=&type=&limit=.
func (h *EntityHandler) SuggestEntities(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "prefix is required"))
		return
	}
	entityType := c.Query("type")
	if entityType != "" {
		if _, ok := validEntityTypes[entityType]; !ok {
			response.Error(c, apperr.Newf(apperr.KindInvalidArgument, "unknown entity type %q", entityType))
			return
		}
	}
	limit := intQuery(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	values, err := h.entRepo.SuggestValues(dbctx.Context{Ctx: c.Request.Context()}, prefix, entityType, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"suggestions": values})
}

// SuggestTokens handles GET /suggest/tokens?prefix=&limit=.
func (h *EntityHandler) SuggestTokens(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "prefix is required"))
		return
	}
	limit := intQuery(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	tokens, err := h.idxRepo.SuggestTokens(dbctx.Context{Ctx: c.Request.Context()}, prefix, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"suggestions": tokens})
}

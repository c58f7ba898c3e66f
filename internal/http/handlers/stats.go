package handlers

import (
	"github.com/gin-gonic/gin"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type StatsHandler struct {
	log      *logger.Logger
	docRepo  repos.DocumentRepo
	pageRepo repos.ImagePageRepo
	ocrRepo  repos.OCRTextRepo
	entRepo  repos.EntityRepo
	idxRepo  repos.SearchIndexRepo
}

func NewStatsHandler(
	log *logger.Logger,
	docRepo repos.DocumentRepo,
	pageRepo repos.ImagePageRepo,
	ocrRepo repos.OCRTextRepo,
	entRepo repos.EntityRepo,
	idxRepo repos.SearchIndexRepo,
) *StatsHandler {
	return &StatsHandler{
		log:      log.With("handler", "StatsHandler"),
		docRepo:  docRepo,
		pageRepo: pageRepo,
		ocrRepo:  ocrRepo,
		entRepo:  entRepo,
		idxRepo:  idxRepo,
	}
}

// Stats handles GET /stats.
func (h *StatsHandler) Stats(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	docCount, err := h.docRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageCount, err := h.pageRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagesByState, err := h.pageRepo.CountByState(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	ocrCount, err := h.ocrRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	entCount, err := h.entRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	entByType, err := h.entRepo.CountByType(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	idxCount, err := h.idxRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"documents":        docCount,
		"pages":            pageCount,
		"pages_by_state":   pagesByState,
		"ocr_texts":        ocrCount,
		"entities":         entCount,
		"entities_by_type": entByType,
		"indexed_pages":    idxCount,
	})
}

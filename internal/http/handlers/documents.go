package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type DocumentHandler struct {
	log      *logger.Logger
	docRepo  repos.DocumentRepo
	pageRepo repos.ImagePageRepo
	ocrRepo  repos.OCRTextRepo
}

func NewDocumentHandler(log *logger.Logger, docRepo repos.DocumentRepo, pageRepo repos.ImagePageRepo, ocrRepo repos.OCRTextRepo) *DocumentHandler {
	return &DocumentHandler{
		log:      log.With("handler", "DocumentHandler"),
		docRepo:  docRepo,
		pageRepo: pageRepo,
		ocrRepo:  ocrRepo,
	}
}

// List handles GET /documents?limit=&offset=.
func (h *DocumentHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	if limit < 0 || offset < 0 {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "limit and offset must be non-negative"))
		return
	}
	if limit > 500 {
		limit = 500
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	docs, err := h.docRepo.List(dbc, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.docRepo.Count(dbc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"documents": docs,
		"count":     len(docs),
		"total":     total,
	})
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.docRepo.GetByID(dbc, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc == nil {
		response.Error(c, apperr.New(apperr.KindNotFound, "document not found"))
		return
	}
	response.OK(c, doc)
}

// Pages handles GET /documents/:id/pages; each page carries its OCR text
// when available.
func (h *DocumentHandler) Pages(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	docID := c.Param("id")

	doc, err := h.docRepo.GetByID(dbc, docID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc == nil {
		response.Error(c, apperr.New(apperr.KindNotFound, "document not found"))
		return
	}

	pages, err := h.pageRepo.ListByDocumentID(dbc, docID)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageIDs := make([]string, 0, len(pages))
	for _, p := range pages {
		pageIDs = append(pageIDs, p.ID)
	}
	texts, err := h.ocrRepo.GetByPageIDs(dbc, pageIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	textByPage := make(map[string]any, len(texts))
	for _, t := range texts {
		textByPage[t.PageID] = t
	}

	out := make([]gin.H, 0, len(pages))
	for _, p := range pages {
		out = append(out, gin.H{
			"page": p,
			"ocr":  textByPage[p.ID],
		})
	}
	response.OK(c, gin.H{
		"document": doc,
		"pages":    out,
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

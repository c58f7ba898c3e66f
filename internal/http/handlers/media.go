package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docindex-backend/internal/clients/redisx"
	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/storage"
)

const presignTTL = 15 * time.Minute

// MediaHandler redirects to presigned blob URLs for page rasters and
// original files. URLs are cached until shortly before expiry.
type MediaHandler struct {
	log      *logger.Logger
	blobs    storage.BlobStore
	docRepo  repos.DocumentRepo
	pageRepo repos.ImagePageRepo
	cache    *redisx.URLCache
}

func NewMediaHandler(log *logger.Logger, blobs storage.BlobStore, docRepo repos.DocumentRepo, pageRepo repos.ImagePageRepo, cache *redisx.URLCache) *MediaHandler {
	return &MediaHandler{
		log:      log.With("handler", "MediaHandler"),
		blobs:    blobs,
		docRepo:  docRepo,
		pageRepo: pageRepo,
		cache:    cache,
	}
}

// PageImage handles GET /images/:page_id.
func (h *MediaHandler) PageImage(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	page, err := h.pageRepo.GetByID(dbc, c.Param("page_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if page == nil {
		response.Error(c, apperr.New(apperr.KindNotFound, "page not found"))
		return
	}
	h.redirect(c, page.ImagePath)
}

// DocumentFile handles GET /files/:document_id.
func (h *MediaHandler) DocumentFile(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.docRepo.GetByID(dbc, c.Param("document_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc == nil {
		response.Error(c, apperr.New(apperr.KindNotFound, "document not found"))
		return
	}
	h.redirect(c, doc.BlobKey)
}

func (h *MediaHandler) redirect(c *gin.Context, key string) {
	ctx := c.Request.Context()
	if url, ok := h.cache.Get(ctx, key); ok {
		c.Redirect(http.StatusFound, url)
		return
	}
	url, err := h.blobs.URL(ctx, key, presignTTL)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cache.Set(ctx, key, url, presignTTL)
	c.Redirect(http.StatusFound, url)
}

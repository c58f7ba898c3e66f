package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/search"
)

type SearchHandler struct {
	log            *logger.Logger
	engine         *search.Engine
	defaultLimit   int
	fuzzyThreshold float64
}

func NewSearchHandler(log *logger.Logger, engine *search.Engine, defaultLimit int, fuzzyThreshold float64) *SearchHandler {
	if defaultLimit <= 0 {
		defaultLimit = search.DefaultLimit
	}
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = search.DefaultFuzzyThreshold
	}
	return &SearchHandler{
		log:            log.With("handler", "SearchHandler"),
		engine:         engine,
		defaultLimit:   defaultLimit,
		fuzzyThreshold: fuzzyThreshold,
	}
}

// Search handles GET /search?q=&mode=&type=&limit=&threshold=.
func (h *SearchHandler) Search(c *gin.Context) {
	req := search.Request{
		Mode:           search.Mode(c.Query("mode")),
		Query:          c.Query("q"),
		EntityType:     c.Query("type"),
		Limit:          h.defaultLimit,
		FuzzyThreshold: h.fuzzyThreshold,
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidArgument, "limit must be an integer"))
			return
		}
		req.Limit = n
	}
	if raw := c.Query("threshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidArgument, "threshold must be a number"))
			return
		}
		req.FuzzyThreshold = f
	}

	hits, err := h.engine.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"query":   req.Query,
		"mode":    string(req.Mode),
		"count":   len(hits),
		"results": hits,
	})
}

package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// visionEngine runs DOCUMENT_TEXT_DETECTION and flattens the page
// hierarchy down to word boxes.
type visionEngine struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVisionEngine(log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	client, err := vision.NewImageAnnotatorClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionEngine{
		log:    log.With("engine", "vision"),
		client: client,
	}, nil
}

func (e *visionEngine) Name() string { return "vision" }

func (e *visionEngine) Extract(ctx context.Context, img []byte, langs []string) (*Result, error) {
	if len(img) == 0 {
		return &Result{Engine: e.Name()}, nil
	}

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if len(langs) > 0 {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: langs}
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := e.client.BatchAnnotateImages(ctx, br)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "vision annotate", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, "vision BatchAnnotateImages", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &Result{Engine: e.Name()}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, apperr.Newf(apperr.KindPermanentUpstream, "vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return &Result{Engine: e.Name()}, nil
	}

	var words []Word
	for _, pg := range fta.Pages {
		if pg == nil {
			continue
		}
		for _, block := range pg.Blocks {
			if block == nil {
				continue
			}
			for _, para := range block.Paragraphs {
				if para == nil {
					continue
				}
				for _, w := range para.Words {
					if w == nil {
						continue
					}
					text := wordText(w)
					if text == "" {
						continue
					}
					x, y, bw, bh, ok := boundsFromPoly(w.BoundingBox)
					if !ok {
						continue
					}
					words = append(words, Word{
						Text:       text,
						X:          x,
						Y:          y,
						Width:      bw,
						Height:     bh,
						Confidence: float64(w.Confidence),
					})
				}
			}
		}
	}

	return &Result{Engine: e.Name(), Words: words}, nil
}

func wordText(w *visionpb.Word) string {
	var sb strings.Builder
	for _, s := range w.Symbols {
		if s != nil {
			sb.WriteString(s.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func boundsFromPoly(bp *visionpb.BoundingPoly) (x, y, w, h float64, ok bool) {
	if bp == nil || len(bp.Vertices) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY := float64(bp.Vertices[0].X), float64(bp.Vertices[0].Y)
	maxX, maxY := minX, minY
	for _, v := range bp.Vertices[1:] {
		if v == nil {
			continue
		}
		fx, fy := float64(v.X), float64(v.Y)
		if fx < minX {
			minX = fx
		}
		if fy < minY {
			minY = fy
		}
		if fx > maxX {
			maxX = fx
		}
		if fy > maxY {
			maxY = fy
		}
	}
	return minX, minY, maxX - minX, maxY - minY, true
}

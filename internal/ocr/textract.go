package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// textractEngine calls DetectDocumentText. Textract reports geometry as
// ratios of page dimensions, so boxes are scaled back up using the
// decoded image size.
type textractEngine struct {
	log    *logger.Logger
	client *textract.Client
}

func NewTextractEngine(log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return &textractEngine{
		log:    log.With("engine", "textract"),
		client: textract.NewFromConfig(cfg),
	}, nil
}

func (e *textractEngine) Name() string { return "textract" }

func (e *textractEngine) Extract(ctx context.Context, img []byte, langs []string) (*Result, error) {
	if len(img) == 0 {
		return &Result{Engine: e.Name()}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, "decode image dimensions", err)
	}
	pageW, pageH := float64(cfg.Width), float64(cfg.Height)

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: img},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "textract detect", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, "textract DetectDocumentText", err)
	}

	var words []Word
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeWord || block.Text == nil || *block.Text == "" {
			continue
		}
		if block.Geometry == nil || block.Geometry.BoundingBox == nil {
			continue
		}
		bb := block.Geometry.BoundingBox
		conf := 0.0
		if block.Confidence != nil {
			conf = float64(*block.Confidence) / 100.0
		}
		words = append(words, Word{
			Text:       *block.Text,
			X:          float64(bb.Left) * pageW,
			Y:          float64(bb.Top) * pageH,
			Width:      float64(bb.Width) * pageW,
			Height:     float64(bb.Height) * pageH,
			Confidence: conf,
		})
	}

	return &Result{Engine: e.Name(), Words: words}, nil
}

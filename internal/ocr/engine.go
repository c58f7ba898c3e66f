package ocr

import (
	"fmt"
	"strings"

	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/utils"
)

// EngineSettings selects and parameterizes the OCR backend for a
// deployment. Sidecar URLs are only needed when their engine is used.
type EngineSettings struct {
	Engine          string
	EasyOCRURL      string
	PaddleOCRURL    string
	EnsembleMembers []string
	DropConfidence  float64
}

func EngineSettingsFromEnv(log *logger.Logger) EngineSettings {
	members := strings.Split(utils.GetEnv("OCR_ENSEMBLE_ENGINES", "tesseract", log), ",")
	for i := range members {
		members[i] = strings.TrimSpace(members[i])
	}
	return EngineSettings{
		Engine:          utils.GetEnv("OCR_ENGINE", "tesseract", log),
		EasyOCRURL:      utils.GetEnv("EASYOCR_BASE_URL", "", log),
		PaddleOCRURL:    utils.GetEnv("PADDLEOCR_BASE_URL", "", log),
		EnsembleMembers: members,
		DropConfidence:  utils.GetEnvAsFloat("OCR_DROP_CONFIDENCE", defaultDropConfidence, log),
	}
}

// NewEngine builds the configured backend. Ensemble members are built
// recursively by name and may not themselves be "ensemble".
func NewEngine(log *logger.Logger, s EngineSettings) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	name := strings.ToLower(strings.TrimSpace(s.Engine))
	if name == "" {
		name = "tesseract"
	}
	if name != "ensemble" {
		return newSingleEngine(log, s, name)
	}

	var members []Engine
	for _, member := range s.EnsembleMembers {
		if member == "" {
			continue
		}
		if member == "ensemble" {
			return nil, fmt.Errorf("ensemble cannot contain itself")
		}
		eng, err := newSingleEngine(log, s, member)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %s: %w", member, err)
		}
		members = append(members, eng)
	}
	return NewEnsembleEngine(log, members, s.DropConfidence)
}

func newSingleEngine(log *logger.Logger, s EngineSettings, name string) (Engine, error) {
	switch name {
	case "tesseract":
		return NewTesseractEngine(log), nil
	case "easyocr":
		return NewSidecarEngine(log, "easyocr", s.EasyOCRURL)
	case "paddle", "paddleocr":
		return NewSidecarEngine(log, "paddle", s.PaddleOCRURL)
	case "vision":
		return NewVisionEngine(log)
	case "textract":
		return NewTextractEngine(log)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", name)
	}
}

package docs

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// WordBox is one recognized word with its axis-aligned box in original
// page pixel coordinates.
type WordBox struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// BBox is an axis-aligned box in page pixel coordinates.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func MarshalWordBoxes(boxes []WordBox) (datatypes.JSON, error) {
	if boxes == nil {
		boxes = []WordBox{}
	}
	b, err := json.Marshal(boxes)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func UnmarshalWordBoxes(raw datatypes.JSON) ([]WordBox, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []WordBox
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func MarshalBBox(b *BBox) (datatypes.JSON, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func UnmarshalBBox(raw datatypes.JSON) (*BBox, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out BBox
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func MarshalTokens(tokens []string) (datatypes.JSON, error) {
	if tokens == nil {
		tokens = []string{}
	}
	b, err := json.Marshal(tokens)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func UnmarshalTokens(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

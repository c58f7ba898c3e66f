package search

import (
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
)

// BuildIndexRow derives the SearchIndex row for an OCRText. Returns nil
// when the page has no indexable text.
func BuildIndexRow(ocr *types.OCRText) (*types.SearchIndex, error) {
	if ocr == nil {
		return nil, nil
	}
	searchable := SearchableText(ocr.NormalizedText)
	tokens := Tokenize(searchable)
	raw, err := types.MarshalTokens(tokens)
	if err != nil {
		return nil, err
	}
	return &types.SearchIndex{
		OCRTextID:      ocr.ID,
		PageID:         ocr.PageID,
		DocumentID:     ocr.DocumentID,
		SearchableText: searchable,
		Tokens:         raw,
	}, nil
}

package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type Repos struct {
	Document    repos.DocumentRepo
	ImagePage   repos.ImagePageRepo
	OCRText     repos.OCRTextRepo
	Entity      repos.EntityRepo
	SearchIndex repos.SearchIndexRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Document:    repos.NewDocumentRepo(db, log),
		ImagePage:   repos.NewImagePageRepo(db, log),
		OCRText:     repos.NewOCRTextRepo(db, log),
		Entity:      repos.NewEntityRepo(db, log),
		SearchIndex: repos.NewSearchIndexRepo(db, log),
	}
}

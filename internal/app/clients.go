package app

import (
	"fmt"

	"github.com/yungbote/docindex-backend/internal/clients/openai"
	"github.com/yungbote/docindex-backend/internal/clients/redisx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/localmedia"
	"github.com/yungbote/docindex-backend/internal/platform/qdrant"
	"github.com/yungbote/docindex-backend/internal/platform/storage"
)

// Clients are the external-system handles. Vectors, Embedder and
// URLCache are optional; nil disables the feature they back.
type Clients struct {
	Blobs    storage.BlobStore
	Media    localmedia.Tools
	URLCache *redisx.URLCache
	Vectors  qdrant.VectorStore
	Embedder openai.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	blobs, err := storage.NewBlobStore(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init blob store: %w", err)
	}

	cache, err := redisx.NewURLCache(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init url cache: %w", err)
	}

	var vectors qdrant.VectorStore
	qcfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("qdrant config: %w", err)
	}
	if qcfg.URL != "" {
		vectors, err = qdrant.NewVectorStore(log, qcfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init vector store: %w", err)
		}
	} else {
		log.Info("Qdrant not configured; semantic search disabled")
	}

	var embedder openai.Client
	if vectors != nil {
		embedder, err = openai.NewClient(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init embeddings client: %w", err)
		}
	}

	return Clients{
		Blobs:    blobs,
		Media:    localmedia.New(log),
		URLCache: cache,
		Vectors:  vectors,
		Embedder: embedder,
	}, nil
}

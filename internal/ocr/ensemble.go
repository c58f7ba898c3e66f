package ocr

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

const (
	// Overlap needed to treat two engines' detections as one word.
	ensembleMergeIOU = 0.5
	// Merged words below this confidence are discarded.
	defaultDropConfidence = 0.3
)

// ensembleEngine runs several engines on the same image and merges
// their word sets. Engines that fail are logged and skipped; the
// ensemble only errors when every member fails.
type ensembleEngine struct {
	log      *logger.Logger
	members  []Engine
	dropConf float64
}

func NewEnsembleEngine(log *logger.Logger, members []Engine, dropConfidence float64) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("ensemble requires at least one member engine")
	}
	if dropConfidence <= 0 {
		dropConfidence = defaultDropConfidence
	}
	return &ensembleEngine{
		log:      log.With("engine", "ensemble"),
		members:  members,
		dropConf: dropConfidence,
	}, nil
}

func (e *ensembleEngine) Name() string { return "ensemble" }

func (e *ensembleEngine) Extract(ctx context.Context, img []byte, langs []string) (*Result, error) {
	if len(img) == 0 {
		return &Result{Engine: e.Name()}, nil
	}

	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, member := range e.members {
		i, member := i, member
		g.Go(func() error {
			res, err := member.Extract(gctx, img, langs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[i] = err
				e.log.Warn("ensemble member failed", "member", member.Name(), "error", err)
				// Member failures are tolerated unless all fail.
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, apperr.Wrap(apperr.KindCancelled, "ensemble", ctx.Err())
	}

	var sets [][]Word
	for _, res := range results {
		if res != nil {
			sets = append(sets, res.Words)
		}
	}
	if len(sets) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, apperr.Wrap(apperr.KindOf(err), "all ensemble members failed", err)
			}
		}
		return &Result{Engine: e.Name()}, nil
	}

	words := PruneLowConfidence(MergeWordSets(sets, ensembleMergeIOU), e.dropConf)
	return &Result{Engine: e.Name(), Words: words}, nil
}

package ranking

import (
	"context"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/rag/vectorDB"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

type Result struct {
	// Matches is ranked best first and not yet truncated to the caller's limit.
	Matches []commonModels.ScoredMatch
	// Candidates is the raw match count before thresholding.
	Candidates int
	Broadened  bool
	// BelowThreshold is set when every candidate scored under the minimum and
	// the unfiltered ranking was returned instead.
	BelowThreshold bool
}

type Retriever struct {
	index    vectorDB.Index
	minScore float64
	logger   *logger_i.Logger
}

func NewRetriever(index vectorDB.Index, minScore float64) *Retriever {
	return &Retriever{
		index:    index,
		minScore: minScore,
		logger:   logger_i.NewLogger("retriever"),
	}
}

// OverFetch is how many candidates to request for a final limit.
func OverFetch(limit int) int {
	return max(limit*config.OverFetchFactor, config.OverFetchFloor)
}

// Retrieve queries the session scope first and widens to the whole user only
// when the session has nothing.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, query string, userId string, sessionId string, limit int) (Result, error) {
	log := r.logger.FromContext(ctx)
	fetch := OverFetch(limit)

	var raw []commonModels.RetrievalMatch
	var err error
	broadened := false

	if sessionId != "" {
		raw, err = r.index.Query(ctx, vector, fetch, commonModels.Filter{
			commonModels.MetaUserId:    userId,
			commonModels.MetaSessionId: sessionId,
		})
		if err != nil {
			return Result{}, err
		}
	}
	if len(raw) == 0 {
		broadened = sessionId != ""
		raw, err = r.index.Query(ctx, vector, fetch, commonModels.Filter{
			commonModels.MetaUserId: userId,
		})
		if err != nil {
			return Result{}, err
		}
	}

	ranked := Rank(raw, query)
	kept := make([]commonModels.ScoredMatch, 0, len(ranked))
	for _, m := range ranked {
		if m.HybridScore >= r.minScore {
			kept = append(kept, m)
		}
	}

	res := Result{Matches: kept, Candidates: len(raw), Broadened: broadened}
	if len(kept) == 0 && len(ranked) > 0 {
		log.Debug("no match above threshold, using unfiltered ranking", "candidates", len(ranked), "minScore", r.minScore)
		res.Matches = ranked
		res.BelowThreshold = true
	}
	log.Debug("retrieved", "candidates", len(raw), "kept", len(res.Matches), "broadened", broadened)
	return res, nil
}

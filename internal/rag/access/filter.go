// Package access decides which retrieved chunks a user may see.
package access

import (
	"context"

	"github.com/akolanti/DocAssist/internal/domain/commonModels"
	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

// EnabledSet holds the canonical ids of a user's enabled documents.
type EnabledSet struct {
	ids map[commonModels.DocumentID]struct{}
}

// NewEnabledSet parses raw registry ids; ids that do not parse are skipped.
func NewEnabledSet(raw []string) EnabledSet {
	ids := make(map[commonModels.DocumentID]struct{}, len(raw))
	for _, r := range raw {
		id, err := commonModels.ParseDocumentID(r)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return EnabledSet{ids: ids}
}

func (s EnabledSet) Len() int {
	return len(s.ids)
}

func (s EnabledSet) Contains(id commonModels.DocumentID) bool {
	_, ok := s.ids[id]
	return ok
}

type Policy struct {
	// AllowLegacyUnscoped lets chunks stored without a documentId through
	// when the user has at least one enabled document.
	AllowLegacyUnscoped bool
	logger              *logger_i.Logger
}

func NewPolicy(allowLegacyUnscoped bool) *Policy {
	return &Policy{
		AllowLegacyUnscoped: allowLegacyUnscoped,
		logger:              logger_i.NewLogger("access"),
	}
}

// Filter keeps matches whose document is in enabled, preserving order. An
// empty set lets nothing through.
func (p *Policy) Filter(ctx context.Context, matches []commonModels.ScoredMatch, enabled EnabledSet) []commonModels.ScoredMatch {
	if enabled.Len() == 0 {
		return []commonModels.ScoredMatch{}
	}
	log := p.logger.FromContext(ctx)

	out := make([]commonModels.ScoredMatch, 0, len(matches))
	legacy := 0
	for _, m := range matches {
		raw := commonModels.MetaString(m.Metadata, commonModels.MetaDocumentId)
		if raw == "" {
			if p.AllowLegacyUnscoped {
				legacy++
				out = append(out, m)
			}
			continue
		}
		id, err := commonModels.ParseDocumentID(raw)
		if err != nil {
			log.Warn("dropping match with malformed documentId", "vectorId", m.Id, "documentId", raw)
			continue
		}
		if enabled.Contains(id) {
			out = append(out, m)
		}
	}

	if legacy > 0 {
		log.Warn("allowed matches without documentId", "count", legacy)
		for range legacy {
			metrics.IncrementLegacyAllowance()
		}
	}
	return out
}

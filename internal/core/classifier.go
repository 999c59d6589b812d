package core

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Classifier decides which pipeline status, if any, a message indicates
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify matches a message against the rule set and returns the indicated
// status. Matching is case-insensitive substring search over the subject and
// body excerpt. Among statuses with at least one keyword hit, the winner is
// the one with the highest priority; ties go to the larger matched-keyword
// count, then to the status earliest in the canonical pipeline ordering, so
// the result is deterministic for any fixed message and rule set.
//
// An excluded sender short-circuits to StatusNone regardless of content.
// Classify has no side effects beyond debug logging.
func (c *Classifier) Classify(msg MessageSummary, rs *RuleSet) ClassificationResult {
	if rs.SenderExcluded(msg.Sender) {
		return ClassificationResult{Status: StatusNone}
	}

	content := strings.ToLower(msg.Subject + " " + msg.BodyExcerpt)

	best := ClassificationResult{Status: StatusNone}
	for status, rule := range rs.StatusRules {
		var matched []string
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		candidate := ClassificationResult{
			Status:          status,
			MatchedKeywords: matched,
			Priority:        rule.Priority,
		}
		if best.Status == StatusNone || candidateBeats(candidate, best) {
			best = candidate
		}
	}

	if best.Status != StatusNone && c.logger != nil {
		c.logger.Debug("Classified message",
			zap.String("subject", msg.Subject),
			zap.String("status", string(best.Status)),
			zap.Int("priority", best.Priority),
			zap.Strings("matched_keywords", best.MatchedKeywords))
	}

	return best
}

// candidateBeats orders candidates by priority, then matched-keyword count,
// then earliest pipeline position. Terminal statuses sort after the pipeline
// so the ordering stays total.
func candidateBeats(a, b ClassificationResult) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if len(a.MatchedKeywords) != len(b.MatchedKeywords) {
		return len(a.MatchedKeywords) > len(b.MatchedKeywords)
	}
	return statusRank(a.Status) < statusRank(b.Status)
}

func statusRank(s Status) int {
	if i, ok := s.PipelineIndex(); ok {
		return i
	}
	// rejected then withdrawn after the pipeline proper
	if s == StatusRejected {
		return len(pipeline)
	}
	return len(pipeline) + 1
}

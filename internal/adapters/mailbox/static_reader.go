package mailbox

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jobtrack/mailscan/internal/core"
)

// StaticReader serves a fixed set of message summaries keyed by company name.
// It backs the offline demo harness and tests, so rules can be tuned without
// mailbox credentials.
type StaticReader struct {
	messages map[string][]core.MessageSummary
}

// NewStaticReader creates a reader over a canned message set
func NewStaticReader() *StaticReader {
	return &StaticReader{messages: make(map[string][]core.MessageSummary)}
}

// Add appends a canned message for a company
func (r *StaticReader) Add(companyName string, msg core.MessageSummary) {
	key := strings.ToLower(companyName)
	if msg.CompanyHint == "" {
		msg.CompanyHint = companyName
	}
	r.messages[key] = append(r.messages[key], msg)
}

// OpenSession is a no-op for the canned feed
func (r *StaticReader) OpenSession(ctx context.Context) error {
	return nil
}

// FetchMessages returns up to limit canned messages for the company received
// after since, oldest-first
func (r *StaticReader) FetchMessages(ctx context.Context, companyName string, since time.Time, limit int) ([]core.MessageSummary, error) {
	var out []core.MessageSummary
	for _, msg := range r.messages[strings.ToLower(companyName)] {
		if msg.ReceivedAt.After(since) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

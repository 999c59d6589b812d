// Package mailbox provides MailboxReader implementations: a live IMAP client
// and a canned in-memory feed for tests and offline rule tuning.
package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/jobtrack/mailscan/internal/core"
)

// bodyExcerptLimit caps how much body text is kept for keyword analysis
const bodyExcerptLimit = 1000

// IMAPConfig is the connection configuration for the IMAP reader
type IMAPConfig struct {
	Server      string // host:port
	Username    string
	Password    string
	DialTimeout time.Duration
}

// IMAPReader reads message summaries from an IMAP mailbox. Company
// association is done server-side with a FROM search against the company
// name; the per-company quota is passed to the server as a fetch bound, never
// applied by post-filtering.
type IMAPReader struct {
	config    IMAPConfig
	logger    *zap.Logger
	mu        sync.Mutex
	client    *client.Client
	connected bool
}

// NewIMAPReader creates a new IMAP mailbox reader
func NewIMAPReader(cfg IMAPConfig, logger *zap.Logger) *IMAPReader {
	return &IMAPReader{config: cfg, logger: logger}
}

// OpenSession connects, authenticates and selects INBOX. Auth and network
// failures here are fatal for the scan run.
func (r *IMAPReader) OpenSession(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return nil
	}

	timeout := r.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r.logger.Info("Connecting to IMAP server", zap.String("server", r.config.Server))

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", r.config.Server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(r.config.Username, r.config.Password); err != nil {
		imapClient.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	if _, err := imapClient.Select("INBOX", true); err != nil {
		imapClient.Logout()
		return fmt.Errorf("failed to select INBOX: %w", err)
	}

	r.client = imapClient
	r.connected = true
	r.logger.Info("Connected to IMAP server")
	return nil
}

// FetchMessages searches for messages from the named company received after
// since and returns up to limit of them, oldest-first
func (r *IMAPReader) FetchMessages(ctx context.Context, companyName string, since time.Time, limit int) ([]core.MessageSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected || r.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Header = textproto.MIMEHeader{"From": {companyName}}

	uids, err := r.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search for %q: %w", companyName, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	// UIDs ascend with delivery order; keeping the first N bounds the fetch
	// to the per-company quota
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- r.client.UidFetch(seqSet, items, messages)
	}()

	var summaries []core.MessageSummary
	for msg := range messages {
		summary, err := r.parseMessage(msg, section, companyName)
		if err != nil {
			r.logger.Warn("Failed to parse message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		summaries = append(summaries, summary)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ReceivedAt.Before(summaries[j].ReceivedAt)
	})
	return summaries, nil
}

// parseMessage converts an IMAP message into a MessageSummary
func (r *IMAPReader) parseMessage(msg *imap.Message, section *imap.BodySectionName, companyName string) (core.MessageSummary, error) {
	summary := core.MessageSummary{CompanyHint: companyName}

	if msg.Envelope != nil {
		summary.Subject = msg.Envelope.Subject
		summary.ReceivedAt = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			if from.PersonalName != "" {
				summary.Sender = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
			} else {
				summary.Sender = from.Address()
			}
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return summary, nil
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return summary, fmt.Errorf("failed to create mail reader: %w", err)
	}

	var text strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			if !strings.HasPrefix(ct, "text/plain") {
				continue
			}
			chunk, err := io.ReadAll(io.LimitReader(part.Body, bodyExcerptLimit))
			if err != nil {
				continue
			}
			text.Write(chunk)
			if text.Len() >= bodyExcerptLimit {
				break
			}
		}
	}

	excerpt := text.String()
	if len(excerpt) > bodyExcerptLimit {
		excerpt = excerpt[:bodyExcerptLimit]
	}
	summary.BodyExcerpt = excerpt
	return summary, nil
}

// Close logs out of the IMAP session
func (r *IMAPReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected || r.client == nil {
		return nil
	}
	r.connected = false
	return r.client.Logout()
}

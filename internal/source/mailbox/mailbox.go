// Package mailbox imports leads from CSV attachments arriving in an IMAP
// inbox. Directory tools and agencies routinely deliver exports by mail;
// polling the inbox turns those into a lead source like any other.
package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/source"
	"leadgen-engine/internal/source/csvfile"
)

// SourceTag marks leads imported from mailed CSV attachments.
const SourceTag = "mailbox_import"

type Config struct {
	Addr     string // host:port, e.g. imap.gmail.com:993
	Username string
	Password string
	Folder   string // default INBOX
	Subject  string // optional case-insensitive subject substring filter

	MaxMessages int  // unseen messages to inspect per run, default 10
	MarkSeen    bool // flag processed messages so reruns skip them
}

type Poller struct {
	cfg Config
}

func New(cfg Config) *Poller {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 10
	}
	return &Poller{cfg: cfg}
}

func (p *Poller) Name() string { return source.NameMailbox }

// Fetch connects, pulls unseen messages from the last three months, decodes
// every CSV attachment and returns the matching leads. A message that fails
// to decode is logged and left unseen; connection-level failures are fatal.
func (p *Poller) Fetch(ctx context.Context, spec domain.FilterSpec, limit int) ([]domain.Lead, int, error) {
	if p.cfg.Addr == "" || p.cfg.Username == "" || p.cfg.Password == "" {
		return nil, 0, fmt.Errorf("%w: mailbox credentials not configured", source.ErrUnavailable)
	}

	c, err := dialAndLogin(ctx, p.cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}
	defer logoutAndClose(c)

	if _, err := c.Select(p.cfg.Folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, 0, fmt.Errorf("%w: select %s: %v", source.ErrUnavailable, p.cfg.Folder, err)
	}

	msgs, err := fetchUnseen(ctx, c, p.cfg.MaxMessages)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", source.ErrUnavailable, err)
	}

	var leads []domain.Lead
	skipped := 0
	seen := map[string]bool{}
	var processed []imap.UID

	for _, m := range msgs {
		if p.cfg.Subject != "" && !strings.Contains(strings.ToLower(m.subject), strings.ToLower(p.cfg.Subject)) {
			continue
		}
		attachments, err := csvAttachments(m.raw)
		if err != nil {
			log.Printf("[mailbox] uid=%d subject=%q parse err=%v", m.uid, m.subject, err)
			continue
		}
		if len(attachments) == 0 {
			continue
		}

		ok := true
		for _, att := range attachments {
			if len(leads) >= limit {
				break
			}
			batch, s, err := csvfile.Decode(bytes.NewReader(att.data), spec, limit-len(leads))
			if err != nil {
				log.Printf("[mailbox] uid=%d attachment=%q decode err=%v", m.uid, att.name, err)
				ok = false
				continue
			}
			skipped += s
			for _, l := range batch {
				if seen[l.EmailKey()] {
					continue
				}
				seen[l.EmailKey()] = true
				l.Source = SourceTag
				leads = append(leads, l)
			}
		}
		if ok {
			processed = append(processed, m.uid)
		}
		log.Printf("[mailbox] uid=%d subject=%q attachments=%d leads=%d", m.uid, m.subject, len(attachments), len(leads))
		if len(leads) >= limit {
			break
		}
	}

	if p.cfg.MarkSeen && len(processed) > 0 {
		if err := markSeen(c, processed); err != nil {
			log.Printf("[mailbox] mark seen err=%v", err)
		}
	}
	return leads, skipped, nil
}

type message struct {
	uid     imap.UID
	subject string
	raw     []byte
}

func dialAndLogin(ctx context.Context, cfg Config) (*imapclient.Client, error) {
	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		host = cfg.Addr
	}
	c, err := imapclient.DialTLS(cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// fetchUnseen pulls up to max unseen messages by UID, newest first, with
// the full raw RFC822 bytes. BODY.PEEK[] keeps \Seen untouched until the
// message is actually processed.
func fetchUnseen(ctx context.Context, c *imapclient.Client, max int) ([]message, error) {
	cutoff := time.Now().AddDate(0, -3, 0)
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   cutoff,
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []message
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := message{uid: buf.UID}
		if buf.Envelope != nil {
			m.subject = buf.Envelope.Subject
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.raw = append([]byte(nil), b...)
		}
		if len(m.raw) > 0 {
			out = append(out, m)
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func markSeen(c *imapclient.Client, uids []imap.UID) error {
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

func logoutAndClose(c *imapclient.Client) {
	if err := c.Logout().Wait(); err != nil {
		log.Printf("[mailbox] imap logout: %v", err)
	}
	_ = c.Close()
}

type attachment struct {
	name string
	data []byte
}

// csvAttachments walks the MIME tree and returns every part that looks
// like a CSV file, whether delivered as a proper attachment or inline.
func csvAttachments(raw []byte) ([]attachment, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mime reader: %w", err)
	}

	var out []attachment
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("mime part: %w", err)
		}

		var name string
		switch h := part.Header.(type) {
		case *gomail.AttachmentHeader:
			name, _ = h.Filename()
		case *gomail.InlineHeader:
			// Some senders inline the file instead of attaching it.
			ct, params, _ := h.ContentType()
			if ct != "text/csv" {
				continue
			}
			name = params["name"]
			if name == "" {
				name = "inline.csv"
			}
		default:
			continue
		}

		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part.Body, 25<<20))
		if err != nil {
			return out, fmt.Errorf("read attachment %s: %w", name, err)
		}
		out = append(out, attachment{name: name, data: data})
	}
	return out, nil
}

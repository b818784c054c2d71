package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

type EmailConfig struct {
	Host      string
	Port      int
	User      string
	Pass      string
	From      string
	DefaultTo []string
}

// RecipientSource supplies addresses managed at runtime, on top of DefaultTo.
type RecipientSource interface {
	ActiveRecipients(ctx context.Context) ([]string, error)
}

// SendFunc has the signature of smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailNotifier struct {
	cfg        EmailConfig
	recipients RecipientSource
	send       SendFunc
}

func NewEmailNotifier(cfg EmailConfig, recipients RecipientSource) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, recipients: recipients, send: smtp.SendMail}
}

// WithSender replaces the SMTP transport.
func (n *EmailNotifier) WithSender(send SendFunc) *EmailNotifier {
	n.send = send
	return n
}

func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	to := n.resolveRecipients(ctx)
	if len(to) == 0 {
		log.Printf("[WARN] notification %s (%s) has no recipients, skipped", msg.ID, msg.Kind)
		return nil
	}

	subject, body, err := Render(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	raw := n.buildMessage(msg, subject, body)
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	}

	// smtp.SendMail upgrades with STARTTLS when the server offers it
	if err := n.send(addr, auth, envelopeAddress(n.cfg.From), to, raw); err != nil {
		return fmt.Errorf("%w: send to %d recipients: %v", ErrNotificationFailed, len(to), err)
	}
	return nil
}

func (n *EmailNotifier) resolveRecipients(ctx context.Context) []string {
	all := append([]string{}, n.cfg.DefaultTo...)
	if n.recipients != nil {
		extra, err := n.recipients.ActiveRecipients(ctx)
		if err != nil {
			log.Printf("[WARN] could not load notification recipients: %v", err)
		} else {
			all = append(all, extra...)
		}
	}
	return MergeRecipients(all...)
}

// The real recipients only travel in the SMTP envelope.
func (n *EmailNotifier) buildMessage(msg Message, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	buf.WriteString("To: Undisclosed recipients:;\r\n")
	if n.cfg.User != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", n.cfg.User)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", msg.CreatedAt.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@inventory>\r\n", msg.ID)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// MergeRecipients trims and de-duplicates addresses, keeping the first
// occurrence order. Entries may themselves be comma separated.
func MergeRecipients(lists ...string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(lists))
	for _, l := range lists {
		for _, e := range strings.Split(l, ",") {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// "Name <addr>" -> "addr"
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

type DBRecipients struct {
	DB *gorm.DB
}

func (r DBRecipients) ActiveRecipients(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.DB.WithContext(ctx).
		Model(&models.EmailRecipient{}).
		Where("active = ?", true).
		Order("id asc").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("load active recipients: %w", err)
	}
	return emails, nil
}

package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/utils"
)

// PostfixFilter implements a Postfix content filter: mail flowing through
// Postfix is analyzed and tagged with phishing headers before being handed
// back on the reinjection port.
type PostfixFilter struct {
	service *core.AnalysisService
	text    *utils.TextProcessor
	logger  *zap.Logger
	cfg     config.ServerConfig
	server  *smtp.Server
}

// NewPostfixFilter creates a new Postfix content filter.
func NewPostfixFilter(service *core.AnalysisService, text *utils.TextProcessor, logger *zap.Logger, cfg config.ServerConfig) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**PHISHING**] "
	}
	return &PostfixFilter{
		service: service,
		text:    text,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start starts the Postfix filter service.
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service.
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes an email directly, bypassing SMTP. Used for testing
// and direct calls.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisRecord, error) {
	return f.service.Analyze(ctx, email, f.cfg.Owner)
}

// sendToPostfix reinjects the tagged email into Postfix.
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.cfg.PostfixAddress, f.cfg.PostfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message, tags it, and reinjects it into Postfix.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}
	textContent = s.filter.text.ProcessText(textContent, s.filter.cfg.MaxBodySize)

	email := &core.EmailInput{
		Sender:  s.sender,
		Subject: msg.Header.Get("Subject"),
		Body:    textContent,
		Headers: make(map[string]string),
	}
	for key, values := range msg.Header {
		if len(values) > 0 {
			email.Headers[key] = values[0]
		}
	}
	if email.Subject == "" {
		email.Subject = "(no subject)"
	}
	if strings.TrimSpace(email.Body) == "" {
		email.Body = "(empty body)"
	}

	senderDomain := "unknown"
	if parts := strings.Split(email.Sender, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	record, analysisErr := s.filter.service.Analyze(ctx, email, s.filter.cfg.Owner)
	if analysisErr != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", email.Sender),
			zap.String("sender_domain", senderDomain))

		// Tag the message as unanalyzed rather than dropping mail.
		record = &core.AnalysisRecord{
			Result: core.AnalyzeResult{
				RiskScore: 0,
				Label:     core.LabelLegitimate,
				Reasons:   []string{fmt.Sprintf("Error during analysis: %v", analysisErr)},
			},
		}
	}

	result := record.Result
	isPhishing := result.Label == core.LabelPhishing

	if isPhishing && s.filter.cfg.BlockPhishing && analysisErr == nil {
		s.filter.logger.Info("Rejecting phishing email",
			zap.String("from", email.Sender),
			zap.String("sender_domain", senderDomain),
			zap.Int("risk_score", result.RiskScore))
		return fmt.Errorf("550 Rejected as phishing (score: %d)", result.RiskScore)
	}

	var modifiedEmail bytes.Buffer

	fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.cfg.StatusHeader, result.Label)
	fmt.Fprintf(&modifiedEmail, "%s: %d\r\n", s.filter.cfg.ScoreHeader, result.RiskScore)
	if len(result.Reasons) > 0 {
		fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.cfg.ReasonHeader, result.Reasons[0])
	}
	if analysisErr != nil {
		fmt.Fprintf(&modifiedEmail, "X-Phishing-Analysis-Error: %s\r\n", analysisErr.Error())
	}

	rewriteSubject := isPhishing && s.filter.cfg.ModifySubject && s.filter.cfg.SubjectPrefix != ""
	for key, values := range msg.Header {
		if rewriteSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", key, value)
		}
	}
	if rewriteSubject {
		subject := msg.Header.Get("Subject")
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		if !strings.HasPrefix(subject, s.filter.cfg.SubjectPrefix) {
			subject = s.filter.cfg.SubjectPrefix + subject
		}
		fmt.Fprintf(&modifiedEmail, "Subject: %s\r\n", subject)
	}
	fmt.Fprintf(&modifiedEmail, "\r\n")

	// Reattach the original body bytes so MIME parts and attachments survive.
	bodyStart := bytes.Index(rawData, []byte("\r\n\r\n"))
	offset := 4
	if bodyStart == -1 {
		bodyStart = bytes.Index(rawData, []byte("\n\n"))
		offset = 2
	}
	if bodyStart >= 0 {
		modifiedEmail.Write(rawData[bodyStart+offset:])
	} else {
		modifiedEmail.WriteString(textContent)
	}

	if s.filter.cfg.PostfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modifiedEmail.Bytes()); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.Sender))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.Sender),
		zap.String("sender_domain", senderDomain),
		zap.String("label", string(result.Label)),
		zap.Int("risk_score", result.RiskScore))

	return nil
}

// Logout handles SMTP logout (not needed for the filter)
func (s *smtpSession) Logout() error {
	return nil
}

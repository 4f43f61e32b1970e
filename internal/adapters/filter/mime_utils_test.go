package filter

import (
	"net/mail"
	"strings"
	"testing"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to parse test message: %v", err)
	}
	return msg
}

func TestExtractTextPlainBody(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Subject: hi\r\n" +
		"\r\n" +
		"plain body text\r\n"

	got, err := extractTextFromMessage(parseMessage(t, raw))
	if err != nil {
		t.Fatalf("extractTextFromMessage() error = %v", err)
	}
	if !strings.Contains(got, "plain body text") {
		t.Errorf("extracted %q, want the plain body", got)
	}
}

func TestExtractTextMultipart(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Subject: hi\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"the plain part\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>the html part</p>\r\n" +
		"--BOUNDARY--\r\n"

	got, err := extractTextFromMessage(parseMessage(t, raw))
	if err != nil {
		t.Fatalf("extractTextFromMessage() error = %v", err)
	}
	if !strings.Contains(got, "the plain part") {
		t.Errorf("extracted %q, want the text/plain part", got)
	}
	if strings.Contains(got, "html part") {
		t.Errorf("extracted %q, HTML part should be skipped", got)
	}
}

func TestExtractTextMultipartWithoutPlainPart(t *testing.T) {
	raw := "From: a@b.c\r\n" +
		"Subject: hi\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>only html</p>\r\n" +
		"--BOUNDARY--\r\n"

	got, err := extractTextFromMessage(parseMessage(t, raw))
	if err != nil {
		t.Fatalf("extractTextFromMessage() error = %v", err)
	}
	if got != "[No text content found in multipart message]" {
		t.Errorf("extracted %q, want the no-content placeholder", got)
	}
}

func TestDecodeEncodedHeader(t *testing.T) {
	got, err := decodeEncodedHeader("=?UTF-8?Q?URGENTE=3A_verifica?=")
	if err != nil {
		t.Fatalf("decodeEncodedHeader() error = %v", err)
	}
	if got != "URGENTE: verifica" {
		t.Errorf("decoded %q, want %q", got, "URGENTE: verifica")
	}

	passthrough, err := decodeEncodedHeader("plain subject")
	if err != nil {
		t.Fatalf("decodeEncodedHeader(plain) error = %v", err)
	}
	if passthrough != "plain subject" {
		t.Errorf("decoded %q, want unchanged", passthrough)
	}
}

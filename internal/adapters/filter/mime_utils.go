package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractTextFromMessage pulls the plain-text content out of an email
// message. Multipart bodies are walked for text/plain parts; anything else
// falls back to the raw body so analysis always has something to score.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readAllString(msg.Body)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readAllString(msg.Body)
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed part boundary; keep whatever text was collected.
			break
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		if !strings.Contains(partType, "text/plain") {
			// Nested multiparts and attachments are skipped.
			continue
		}
		partBytes, err := io.ReadAll(part)
		if err != nil {
			continue
		}
		textContent.Write(partBytes)
		textContent.WriteString("\n")
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return "[No text content found in multipart message]", nil
}

func readAllString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded header values.
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}

package mailer

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// BuildMIMEMessage renders the email as a multipart/mixed message with a
// multipart/alternative body and a base64-encoded PDF attachment.
func BuildMIMEMessage(email Email) []byte {
	const mixedBoundary = "mixed-9c4d1f0a"
	const altBoundary = "alt-2b7e83d5"

	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", email.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mixedBoundary))
	b.WriteString("\r\n")

	b.WriteString("--" + mixedBoundary + "\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary))
	b.WriteString("\r\n")

	b.WriteString("--" + altBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.TextBody)
	b.WriteString("\r\n")

	if email.HTMLBody != "" {
		b.WriteString("--" + altBoundary + "\r\n")
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(email.HTMLBody)
		b.WriteString("\r\n")
	}
	b.WriteString("--" + altBoundary + "--\r\n")

	if len(email.Attachment) > 0 {
		name := email.AttachmentName
		if name == "" {
			name = "report.pdf"
		}
		b.WriteString("--" + mixedBoundary + "\r\n")
		b.WriteString("Content-Type: application/pdf\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", name))
		b.WriteString("\r\n")
		b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(email.Attachment)))
		b.WriteString("\r\n")
	}
	b.WriteString("--" + mixedBoundary + "--\r\n")

	return []byte(b.String())
}

// wrapBase64 splits encoded content into 76-character lines per RFC 2045.
func wrapBase64(encoded string) string {
	const lineLen = 76
	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	return b.String()
}

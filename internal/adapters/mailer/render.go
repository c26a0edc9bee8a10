package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/contact-relay/internal/core"
)

// foldWidth is the preferred header line length before folding
const foldWidth = 76

// render produces the RFC 5322 wire form of msg with CRLF line endings. The
// body is quoted-printable so no line exceeds the SMTP line limit.
func render(msg *core.Message, now time.Time) []byte {
	var buf bytes.Buffer

	from := mail.Address{Name: msg.FromName, Address: msg.FromAddress}
	to := mail.Address{Address: msg.To}
	replyTo := mail.Address{Name: msg.ReplyToName, Address: msg.ReplyToAddress}

	writeHeader(&buf, "Date", now.Format(time.RFC1123Z))
	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	if msg.ReplyToAddress != "" {
		writeHeader(&buf, "Reply-To", replyTo.String())
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	writeHeader(&buf, "Message-ID", messageID(msg.FromAddress))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", "text/plain; charset=UTF-8")
	writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	qp := quotedprintable.NewWriter(&buf)
	qp.Write([]byte(body + "\n"))
	qp.Close()

	return buf.Bytes()
}

// writeHeader writes name: value, folding at spaces so lines stay near foldWidth
func writeHeader(buf *bytes.Buffer, name, value string) {
	line := name + ":"
	for i, word := range strings.Split(value, " ") {
		if i > 0 && len(line)+1+len(word) > foldWidth {
			buf.WriteString(line)
			buf.WriteString("\r\n")
			line = ""
		}
		line += " " + word
	}
	fmt.Fprintf(buf, "%s\r\n", line)
}

// headerSafe is a last line of defence; the validator already strips line
// breaks from the values that reach headers
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}

func messageID(fromAddress string) string {
	domain := "localhost"
	if at := strings.LastIndex(fromAddress, "@"); at >= 0 && at < len(fromAddress)-1 {
		domain = fromAddress[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

package mailer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Message — письмо с одним бинарным вложением.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentName string
	AttachmentMIME string
	Attachment     []byte
}

// SMTPMailer отправляет письма через SMTP. Транспортная ошибка возвращается
// вызывающему как есть: движок не ретраит отправку сам.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer создаёт отправщик.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send отправляет письмо. Контекст проверяется до обращения к транспорту:
// середины отправки отменить нельзя.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.HTMLBody)

	if len(msg.Attachment) > 0 {
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(msg.Attachment)
				return err
			}),
		}
		if msg.AttachmentMIME != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {msg.AttachmentMIME},
			}))
		}
		mail.Attach(msg.AttachmentName, settings...)
	}

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("mailer: не удалось отправить письмо на %s: %w", msg.To, err)
	}
	return nil
}

package mailer

import (
	"context"
	"io"

	"github.com/samber/oops"
	mail "github.com/wneessen/go-mail"
)

// via https://go-mail.dev/getting-started/introduction/

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Debug    bool
}

// Send delivers body to every recipient. attachment is optional and is
// attached as attachmentName.
func (m *Mailer) Send(ctx context.Context, to []string, subject, body string, attachmentName string, attachment io.ReadSeeker) error {
	oopsBuilder := oops.In("Mailer.Send").With("host", m.Host).With("to", to)

	msg, err := m.message(to, subject, body, attachmentName, attachment)
	if err != nil {
		return oopsBuilder.Wrap(err)
	}

	opts := []mail.Option{
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
	}
	if m.Port > 0 {
		opts = append(opts, mail.WithPort(m.Port))
	}
	if m.Debug {
		opts = append(opts, mail.WithDebugLog())
	}
	client, err := mail.NewClient(m.Host, opts...)
	if err != nil {
		return oopsBuilder.Wrap(err)
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return oopsBuilder.Hint("check mail.host, mail.port and credentials").Wrap(err)
	}
	return nil
}

func (m *Mailer) message(to []string, subject, body string, attachmentName string, attachment io.ReadSeeker) (*mail.Msg, error) {
	oopsBuilder := oops.In("Mailer.message")
	if len(to) == 0 {
		return nil, oopsBuilder.Errorf("no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, oopsBuilder.With("from", m.From).Wrap(err)
	}
	if err := msg.To(to...); err != nil {
		return nil, oopsBuilder.With("to", to).Wrap(err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	if attachment != nil {
		msg.AttachReadSeeker(attachmentName, attachment)
	}
	return msg, nil
}

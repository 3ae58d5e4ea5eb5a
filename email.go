package tocloud

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rafaeljusto/tocloud/internal/report"
)

// EmailSender is a contract to send the report by e-mail. It has the same
// signature of smtp.SendMail, so the standard library can be used directly.
type EmailSender interface {
	SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// EmailSenderFunc is a function that implements EmailSender.
type EmailSenderFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SendMail sends the e-mail using the function.
func (r EmailSenderFunc) SendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	return r(addr, a, from, to, msg)
}

// EmailInfo contains the necessary information to send an e-mail.
type EmailInfo struct {
	Sender   EmailSender
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Format   report.Format
}

// SendReport sends all the reports collected since the last call by e-mail.
// On error it will return an Error type encapsulated in a traceable error. To
// retrieve the desired error you can do:
//
//	type causer interface {
//	  Cause() error
//	}
//
//	if causeErr, ok := err.(causer); ok {
//	  switch specificErr := causeErr.Cause().(type) {
//	  case *tocloud.Error:
//	    // handle specifically
//	  default:
//	    // unknown error
//	  }
//	}
func (t *ToCloud) SendReport(emailInfo EmailInfo) error {
	content, err := report.Build(emailInfo.Format)
	if err != nil {
		return errors.WithStack(newError("", ErrorCodeBuildingReport, err))
	}

	auth := smtp.PlainAuth("", emailInfo.Username, emailInfo.Password, emailInfo.Server)

	body := fmt.Sprintf(`From: %s
To: %s
Subject: tocloud report
MIME-Version: 1.0
Content-Type: %s; charset=UTF-8

%s`, emailInfo.From, strings.Join(emailInfo.To, ","), emailInfo.Format, content)

	addr := fmt.Sprintf("%s:%d", emailInfo.Server, emailInfo.Port)
	if err := emailInfo.Sender.SendMail(addr, auth, emailInfo.From, emailInfo.To, []byte(body)); err != nil {
		return errors.WithStack(newError("", ErrorCodeSendingEmail, err))
	}

	t.Logger.Info("tocloud: report sent by e-mail")
	return nil
}

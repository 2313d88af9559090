package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactService 联系表单转发到客服邮箱
type ContactService struct {
	mailer Mailer
	inbox  string
	log    *logger.Logger
}

func NewContactService(mailer Mailer, inbox string, log *logger.Logger) *ContactService {
	return &ContactService{mailer: mailer, inbox: inbox, log: log.With("service", "ContactService")}
}

func (s *ContactService) Submit(ctx context.Context, f ContactForm) error {
	f.Name, f.Email = strings.TrimSpace(f.Name), strings.TrimSpace(f.Email)
	f.Subject, f.Message = strings.TrimSpace(f.Subject), strings.TrimSpace(f.Message)
	if f.Name == "" || f.Subject == "" || f.Message == "" {
		return fmt.Errorf("name, subject and message are required: %w", pkg.ErrInvalidArgument)
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		return fmt.Errorf("invalid email: %w", pkg.ErrInvalidArgument)
	}
	if s.mailer == nil || s.inbox == "" {
		return fmt.Errorf("mail relay not configured: %w", pkg.ErrUpstreamFailure)
	}
	err := s.mailer.Send(s.inbox, f.Email, "[Contact] "+f.Subject, pkg.ContactHTML(f.Name, f.Email, f.Subject, f.Message))
	pkg.UpstreamCalls.WithLabelValues("smtp", pkg.ResultLabel(err)).Inc()
	if err != nil {
		s.log.Error("contact mail failed", "error", err)
		return fmt.Errorf("send contact mail: %v: %w", err, pkg.ErrUpstreamFailure)
	}
	s.log.Info("contact mail relayed", "subject", f.Subject)
	return nil
}

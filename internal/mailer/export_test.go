package mailer

import "net/url"

func (s *ResendSender) SetBaseURL(u *url.URL) { s.client.BaseURL = u }

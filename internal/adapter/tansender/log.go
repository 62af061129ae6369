// Package tansender provides out-of-band TAN code delivery channels.
package tansender

import (
	"context"

	"corebank/internal/core/domain"

	"github.com/rs/zerolog"
)

// LogSender writes codes to the server log. Meant for development and
// regional deployments where the operator relays codes manually.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the code at warn level so it stands out of the info stream.
func (s *LogSender) Send(_ context.Context, login string, _ domain.TanChannel, code string) error {
	s.log.Warn().
		Str("login", login).
		Str("code", code).
		Msg("TAN code issued")
	return nil
}

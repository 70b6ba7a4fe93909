package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/contribfest/participation/pkg/logger"
)

const fallbackUserMessage = "Something went wrong, please try again later"

// Handler is the single place errors get reported. It writes a structured
// log record, forwards high and critical severities to Sentry, and picks the
// message a caller may show to the participant.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle reports err and returns the user-facing message plus whether the
// failed operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	attrs := []slog.Attr{slog.String("message", err.Error())}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		// Anything without a code slipped past the taxonomy and always
		// warrants a Sentry event.
		h.logError(ctx, "unknown error", attrs)
		if h.sentryEnabled {
			h.capture(err)
		}

		return fallbackUserMessage, false
	}

	attrs = append(attrs,
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	)
	h.logError(ctx, "application error", attrs)

	if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
		h.capture(appErr)
	}

	if appErr.UserMessage == "" {
		return fallbackUserMessage, appErr.Retryable
	}

	return appErr.UserMessage, appErr.Retryable
}

func (h *Handler) logError(ctx context.Context, msg string, attrs []slog.Attr) {
	log := h.log
	if log == nil {
		log = slog.Default()
	}

	log.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (h *Handler) capture(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			scope.SetTag("code", appErr.Code)
			scope.SetTag("severity", string(appErr.Severity))
		}

		sentry.CaptureException(err)
	})
}

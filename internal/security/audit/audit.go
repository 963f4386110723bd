package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes a structured audit trail for auth transitions and
// destructive product operations.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID int64, action, resource string, resourceID int64, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.Int64("resource_id", resourceID),
		slog.Int64("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRegister(ctx context.Context, userID int64, status, details string) {
	al.LogAction(ctx, userID, "register", "user", userID, status, details)
}

func (al *Logger) LogLogin(ctx context.Context, userID int64, status, details string) {
	al.LogAction(ctx, userID, "login", "session", userID, status, details)
}

func (al *Logger) LogLogout(ctx context.Context, userID int64) {
	al.LogAction(ctx, userID, "logout", "session", userID, "ok", "")
}

func (al *Logger) LogResume(ctx context.Context, userID int64, status, details string) {
	al.LogAction(ctx, userID, "resume", "session", userID, status, details)
}

func (al *Logger) LogProductDelete(ctx context.Context, userID, productID int64, status, details string) {
	al.LogAction(ctx, userID, "delete", "product", productID, status, details)
}

package cart

import (
	"context"

	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// Notice is the single user-facing notification emitted for a failed
// mutation. RedirectToLogin marks authentication failures, which need a
// redirect rather than an inline message.
type Notice struct {
	Code            pkgerrors.Code
	Message         string
	RedirectToLogin bool
}

// Notifier delivers notices to the user-facing channel. Successful mutations
// never notify; the optimistic UI change is the confirmation.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NopNotifier discards notices.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}

// LogNotifier records notices through the structured logger. The API layer
// carries the same notice to the client in the error envelope.
type LogNotifier struct {
	Logg *logger.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notice Notice) {
	if n.Logg == nil {
		return
	}
	ctx = n.Logg.WithFields(ctx, map[string]any{
		"notice_code":    string(notice.Code),
		"redirect_login": notice.RedirectToLogin,
	})
	n.Logg.Warn(ctx, notice.Message)
}

func noticeFor(err error) Notice {
	code := pkgerrors.CodeOf(err)
	meta := pkgerrors.MetadataFor(code)
	msg := meta.PublicMessage
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}
	return Notice{
		Code:            code,
		Message:         msg,
		RedirectToLogin: code == pkgerrors.CodeUnauthorized,
	}
}

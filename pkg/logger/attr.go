package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// An empty id yields an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Role records a role name under the key "role".
func Role(role string) slog.Attr {
	if role == "" {
		return slog.Attr{}
	}
	return slog.String("role", role)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// NotificationType records the notification type under the key "notification_type".
func NotificationType[T ~string](t T) slog.Attr {
	return slog.String("notification_type", string(t))
}

// Channel records a delivery channel under the key "channel".
func Channel[T ~string](c T) slog.Attr {
	return slog.String("channel", string(c))
}

// Address records a channel-layer address under the key "address".
func Address[T ~string](a T) slog.Attr {
	return slog.String("address", string(a))
}

// ConnectionID records a persistent connection identifier under the key "connection_id".
func ConnectionID(id string) slog.Attr {
	return slog.String("connection_id", id)
}

// Event records the domain event name under the key "event".
func Event[T ~string](name T) slog.Attr {
	return slog.String("event", string(name))
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

package log

import "log/slog"

func ConversationID(id string) slog.Attr {
	return slog.String("conversation_id", id)
}

func TurnID(id string) slog.Attr {
	return slog.String("turn_id", id)
}

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func Step(name string, index int) slog.Attr {
	return slog.Group("step", slog.String("name", name), slog.Int("index", index))
}

func Result[T ~string](result T) slog.Attr {
	return slog.String("result", string(result))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

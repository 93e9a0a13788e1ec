package bridge

import (
	"context"
	"encoding/json"

	"github.com/fsbridge/backend/internal/rpc"
)

// Register wires every filesystem operation onto a connection and makes the
// connection the bridge's notification sink.
func (b *Bridge) Register(conn *rpc.Conn) {
	b.SetNotifier(conn)

	conn.Handle(MethodSchemes, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return b.Schemes(ctx), nil
	})
	conn.Handle(MethodStat, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[URIParams](raw)
		if err != nil {
			return nil, err
		}
		return b.Stat(ctx, p)
	})
	conn.Handle(MethodReadDirectory, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[URIParams](raw)
		if err != nil {
			return nil, err
		}
		return b.ReadDirectory(ctx, p)
	})
	conn.Handle(MethodCreateDirectory, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[URIParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, b.CreateDirectory(ctx, p)
	})
	conn.Handle(MethodReadFile, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[URIParams](raw)
		if err != nil {
			return nil, err
		}
		return b.ReadFile(ctx, p)
	})
	conn.Handle(MethodWriteFile, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[WriteFileParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, b.WriteFile(ctx, p)
	})
	conn.Handle(MethodDelete, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[DeleteParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, b.Delete(ctx, p)
	})
	conn.Handle(MethodRename, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[RenameParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, b.Rename(ctx, p)
	})
	conn.Handle(MethodWatch, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		p, err := decode[WatchParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, b.Watch(ctx, p)
	})
}

func decode[T any](raw json.RawMessage) (T, error) {
	var p T
	if len(raw) == 0 {
		return p, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return p, nil
}

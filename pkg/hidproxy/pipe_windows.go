package hidproxy

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

func Listen(path string) (net.Listener, error) {
	return winio.ListenPipe(path, nil)
}

func Dial(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}

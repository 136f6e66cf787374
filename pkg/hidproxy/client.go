package hidproxy

import (
	"context"
	"io"

	ghid "github.com/go-ctap/hid"
)

// Enumerate lists the devices behind the endpoint at pipePath.
func Enumerate(ctx context.Context, pipePath string) ([]*ghid.DeviceInfo, error) {
	conn, err := Dial(ctx, pipePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = conn.Close()
	}()

	return enumerate(conn)
}

func enumerate(conn io.ReadWriter) ([]*ghid.DeviceInfo, error) {
	msg, err := NewMessage(CommandEnumerate, nil)
	if err != nil {
		return nil, err
	}

	if _, err := msg.WriteTo(conn); err != nil {
		return nil, err
	}

	reply, err := ParseMessage(conn)
	if err != nil {
		return nil, err
	}
	if reply.Command != CommandEnumerate {
		return nil, ErrUnexpectedCommand
	}

	devInfos := make([]*ghid.DeviceInfo, 0)
	if err := reply.Decode(&devInfos); err != nil {
		return nil, err
	}

	return devInfos, nil
}

// OpenPath opens the device at path behind the endpoint at pipePath. The
// returned stream accepts HID writes (report ID + report) and yields reports.
func OpenPath(ctx context.Context, pipePath, path string) (io.ReadWriteCloser, error) {
	conn, err := Dial(ctx, pipePath)
	if err != nil {
		return nil, err
	}

	if err := start(conn, path); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func start(conn io.Writer, path string) error {
	msg, err := NewMessage(CommandStart, path)
	if err != nil {
		return err
	}

	_, err = msg.WriteTo(conn)
	return err
}

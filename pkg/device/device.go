package device

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	ghid "github.com/go-ctap/hid"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/hidproxy"
	"github.com/go-ctap/authenticator/pkg/options"
)

type ctxKey int

const (
	// CtxKeyUseNamedPipe routes Enumerate and OpenPath to a hidproxy endpoint.
	CtxKeyUseNamedPipe ctxKey = iota
	// CtxKeyPipePath overrides the hidproxy endpoint location.
	CtxKeyPipePath
)

// NewContext carries the transport selection of oo in a context.
func NewContext(oo *options.Options) context.Context {
	ctx := context.WithValue(oo.Context, CtxKeyUseNamedPipe, oo.UseProxy)
	return context.WithValue(ctx, CtxKeyPipePath, oo.PipePath)
}

// proxyPath returns the hidproxy endpoint if ctx asks for one.
func proxyPath(ctx context.Context) (string, bool) {
	useNamedPipe, ok := ctx.Value(CtxKeyUseNamedPipe).(bool)
	if !ok || !useNamedPipe {
		return "", false
	}

	if path, ok := ctx.Value(CtxKeyPipePath).(string); ok && path != "" {
		return path, true
	}
	return options.DefaultPipePath, true
}

func enumerateProxy(ctx context.Context, pipePath string, yield func(*ghid.DeviceInfo, error) bool) {
	devInfos, err := hidproxy.Enumerate(ctx, pipePath)
	if err != nil {
		yield(nil, err)
		return
	}

	for _, devInfo := range devInfos {
		if !yield(devInfo, nil) {
			return
		}
	}
}

// Device represents a physical or virtual authenticator reachable over CTAPHID.
type Device struct {
	Path   string
	device io.ReadWriteCloser
	cid    ctaphid.ChannelID
	info   *ctaphid.InitResponse
	logger *slog.Logger
}

// New opens the device at path and allocates a channel on it with CTAPHID_INIT.
func New(path string, opts ...options.Option) (*Device, error) {
	oo := options.NewOptions(opts...)

	dev, err := OpenPath(NewContext(oo), path)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, ctaphid.InitNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		_ = dev.Close()
		return nil, err
	}

	info, err := ctaphid.Init(dev, ctaphid.BROADCAST_CID, nonce)
	if err != nil {
		_ = dev.Close()
		return nil, newErrorMessage(err, "INIT on "+path)
	}

	oo.Logger.Debug("channel allocated", "path", path, "cid", info.CID)

	return &Device{
		Path:   path,
		device: dev,
		cid:    info.CID,
		info:   info,
		logger: oo.Logger,
	}, nil
}

// Close closes the underlying HID device.
func (d *Device) Close() error {
	return d.device.Close()
}

// CID is the channel allocated to this handle.
func (d *Device) CID() ctaphid.ChannelID {
	return d.cid
}

// Info is the CTAPHID_INIT response received when the device was opened.
func (d *Device) Info() *ctaphid.InitResponse {
	return d.info
}

// Ping sends a ping message to the device and verifies the response matches the sent data.
// Returns an error on failure.
func (d *Device) Ping(ping []byte) error {
	pong, err := ctaphid.Ping(d.device, d.cid, ping)
	if err != nil {
		return err
	}

	if !bytes.Equal(ping, pong.Bytes) {
		return ErrPingPongMismatch
	}

	return nil
}

// Wink sends a blink command to the device to visually signal its presence to the user.
// It uses the CTAPHID_WINK command which is optional and could be unsupported by some devices.
func (d *Device) Wink() error {
	if !d.info.ImplementsWink() {
		return ErrNotSupported
	}

	return ctaphid.Wink(d.device, d.cid)
}

package hidproxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/fxamacker/cbor/v2"
	ghid "github.com/go-ctap/hid"
	"github.com/google/uuid"

	"github.com/go-ctap/authenticator/pkg/dispatch"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/session"
)

const (
	// FIDOUsagePage and FIDOUsage identify a CTAPHID interface.
	FIDOUsagePage = 0xf1d0
	FIDOUsage     = 0x01

	vendorID  = 0x1209
	productID = 0xf1d0
)

// Server exposes one virtual authenticator on a stream endpoint. Like a
// physical token it talks to one host at a time: connections are served in
// order and share the dispatcher, so channel IDs keep increasing across them.
type Server struct {
	logger     *slog.Logger
	opts       []options.Option
	pipePath   string
	encMode    cbor.EncMode
	info       *ghid.DeviceInfo
	dispatcher *dispatch.Dispatcher
}

func NewServer(opts ...options.Option) *Server {
	oo := options.NewOptions(opts...)

	serial := uuid.New().String()
	return &Server{
		logger:   oo.Logger,
		opts:     opts,
		pipePath: oo.PipePath,
		encMode:  oo.EncMode,
		info: &ghid.DeviceInfo{
			Path:       "ctaphid-virtual-" + serial,
			VendorID:   vendorID,
			ProductID:  productID,
			SerialNbr:  serial,
			ReleaseNbr: uint16(oo.DeviceVersion[0])<<8 | uint16(oo.DeviceVersion[1]),
			MfrStr:     "go-ctap",
			ProductStr: "Virtual CTAPHID Authenticator",
			UsagePage:  FIDOUsagePage,
			Usage:      FIDOUsage,
		},
		dispatcher: dispatch.New(opts...),
	}
}

// Info describes the virtual device as returned by CommandEnumerate.
func (s *Server) Info() *ghid.DeviceInfo {
	return s.info
}

// ListenAndServe listens on the configured pipe path.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := Listen(s.pipePath)
	if err != nil {
		return err
	}

	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done. l is closed on return.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	s.logger.Info("hidproxy listening", "addr", l.Addr().String(), "device", s.info.Path)

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := s.ServeConn(ctx, conn); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
			s.logger.Warn("hidproxy connection failed", "error", err)
		}
	}
}

// ServeConn answers control messages on conn until CommandStart, then runs a
// session on it until the host disconnects or ctx is done. conn is closed on
// return, or as soon as ctx is done.
func (s *Server) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	logger := s.logger.With("conn", uuid.New().String())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		msg, err := ParseMessage(conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch msg.Command {
		case CommandEnumerate:
			logger.Debug("enumerate")
			reply, err := newMessage(s.encMode, CommandEnumerate, []*ghid.DeviceInfo{s.info})
			if err != nil {
				return err
			}
			if _, err := reply.WriteTo(conn); err != nil {
				return err
			}
		case CommandStart:
			var path string
			if err := msg.Decode(&path); err != nil {
				return err
			}
			if path != s.info.Path {
				return ErrUnknownDevice
			}

			logger.Info("device opened", "path", path)
			return s.run(ctx, conn, logger)
		default:
			return ErrUnexpectedCommand
		}
	}
}

func (s *Server) run(ctx context.Context, conn io.ReadWriteCloser, logger *slog.Logger) error {
	oo := options.NewOptions(s.opts...)
	t := NewStreamTransport(conn, oo.QueueCapacity)
	defer func() {
		_ = t.Close()
	}()

	opts := append([]options.Option{}, s.opts...)
	opts = append(opts, options.WithLogger(logger))
	d := session.New(t, s.dispatcher, opts...)

	if err := d.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.Info("device closed")
	return t.Err()
}

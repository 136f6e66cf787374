//go:build !windows

package device

import (
	"context"
	"errors"
	"io"
	"iter"

	ghid "github.com/go-ctap/hid"
	"github.com/sstallion/go-hid"

	"github.com/go-ctap/authenticator/pkg/hidproxy"
)

func Enumerate(ctx context.Context) iter.Seq2[*ghid.DeviceInfo, error] {
	return func(yield func(*ghid.DeviceInfo, error) bool) {
		if pipePath, ok := proxyPath(ctx); ok {
			enumerateProxy(ctx, pipePath, yield)
			return
		}

		breakErr := errors.New("break")

		if err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
			if !yield(&ghid.DeviceInfo{
				Path:         info.Path,
				VendorID:     info.VendorID,
				ProductID:    info.ProductID,
				SerialNbr:    info.SerialNbr,
				ReleaseNbr:   info.ReleaseNbr,
				MfrStr:       info.MfrStr,
				ProductStr:   info.ProductStr,
				UsagePage:    info.UsagePage,
				Usage:        info.Usage,
				InterfaceNbr: info.InterfaceNbr,
			}, nil) {
				return breakErr
			}

			return nil
		}); err != nil && !errors.Is(err, breakErr) {
			yield(nil, err)
			return
		}
	}
}

func OpenPath(ctx context.Context, path string) (dev io.ReadWriteCloser, err error) {
	if pipePath, ok := proxyPath(ctx); ok {
		return hidproxy.OpenPath(ctx, pipePath, path)
	}

	return hid.OpenPath(path)
}

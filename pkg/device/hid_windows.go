package device

import (
	"context"
	"io"
	"iter"

	cgofreehid "github.com/go-ctap/hid"

	"github.com/go-ctap/authenticator/pkg/hidproxy"
)

func Enumerate(ctx context.Context) iter.Seq2[*cgofreehid.DeviceInfo, error] {
	return func(yield func(*cgofreehid.DeviceInfo, error) bool) {
		if pipePath, ok := proxyPath(ctx); ok {
			enumerateProxy(ctx, pipePath, yield)
			return
		}

		for devInfo, err := range cgofreehid.Enumerate() {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(&cgofreehid.DeviceInfo{
				Path:       devInfo.Path,
				VendorID:   devInfo.VendorID,
				ProductID:  devInfo.ProductID,
				MfrStr:     devInfo.MfrStr,
				ProductStr: devInfo.ProductStr,
				UsagePage:  devInfo.UsagePage,
				Usage:      devInfo.Usage,
			}, nil) {
				return
			}
		}
	}
}

func OpenPath(ctx context.Context, path string) (dev io.ReadWriteCloser, err error) {
	if pipePath, ok := proxyPath(ctx); ok {
		return hidproxy.OpenPath(ctx, pipePath, path)
	}

	return cgofreehid.OpenPath(path)
}

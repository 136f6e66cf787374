package sugar

import (
	"errors"
	"sync"

	ghid "github.com/go-ctap/hid"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/go-ctap/authenticator/pkg/device"
	"github.com/go-ctap/authenticator/pkg/hidproxy"
	"github.com/go-ctap/authenticator/pkg/options"
)

var ErrNoDevices = errors.New("no FIDO devices found")

func EnumerateFIDODevices(opts ...options.Option) ([]*ghid.DeviceInfo, error) {
	oo := options.NewOptions(opts...)

	devInfos := make([]*ghid.DeviceInfo, 0)
	for devInfo, err := range device.Enumerate(device.NewContext(oo)) {
		if err != nil {
			return nil, err
		}

		devInfos = append(devInfos, devInfo)
	}

	return lo.Filter(devInfos, func(devInfo *ghid.DeviceInfo, _ int) bool {
		return devInfo.UsagePage == hidproxy.FIDOUsagePage && devInfo.Usage == hidproxy.FIDOUsage
	}), nil
}

// SelectDevice opens every candidate device concurrently and returns the first
// one that completes CTAPHID_INIT; the others are closed.
func SelectDevice(opts ...options.Option) (*device.Device, error) {
	oo := options.NewOptions(opts...)

	if oo.Paths == nil {
		devInfos, err := EnumerateFIDODevices(opts...)
		if err != nil {
			return nil, err
		}
		oo.Paths = lo.Map(devInfos, func(devInfo *ghid.DeviceInfo, _ int) string {
			return devInfo.Path
		})
	}

	if len(oo.Paths) == 0 {
		return nil, ErrNoDevices
	}

	if len(oo.Paths) == 1 {
		return device.New(oo.Paths[0], opts...)
	}

	results := make(chan mo.Either[*device.Device, error], len(oo.Paths))

	var wg sync.WaitGroup
	for _, p := range oo.Paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()

			dev, err := device.New(path, opts...)
			if err != nil {
				results <- mo.Right[*device.Device, error](err)
				return
			}
			results <- mo.Left[*device.Device, error](dev)
		}(p)
	}

	wg.Wait()
	close(results)

	var (
		selected *device.Device
		errs     []error
	)
	for res := range results {
		if err, ok := res.Right(); ok {
			errs = append(errs, err)
			continue
		}

		dev := res.MustLeft()
		if selected == nil {
			selected = dev
			continue
		}
		_ = dev.Close()
	}

	if selected == nil {
		return nil, errors.Join(errs...)
	}

	return selected, nil
}

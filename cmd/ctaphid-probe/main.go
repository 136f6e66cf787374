// Command ctaphid-probe allocates a channel on a CTAPHID device and checks it
// with a series of PING round trips.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/go-ctap/authenticator/pkg/ctaphid"
	"github.com/go-ctap/authenticator/pkg/device"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/sugar"
)

func main() {
	useProxy := flag.Bool("proxy", false, "talk to a hidproxy endpoint instead of USB HID devices")
	pipePath := flag.String("pipe", options.DefaultPipePath, "hidproxy endpoint path")
	path := flag.String("path", "", "device path; the first responsive FIDO device when empty")
	count := flag.Int("count", 3, "number of PING round trips")
	size := flag.Int("size", 100, "PING payload size in bytes")
	wink := flag.Bool("wink", false, "send CTAPHID_WINK after pinging")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	lvl := new(slog.LevelVar)
	if *debug {
		lvl.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))

	opts := []options.Option{
		options.WithLogger(logger),
		options.WithPipePath(*pipePath),
	}
	if *useProxy {
		opts = append(opts, options.WithUseProxy())
	}
	if *path != "" {
		opts = append(opts, options.WithPaths(*path))
	}

	if err := run(opts, *count, *size, *wink); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(opts []options.Option, count, size int, wink bool) error {
	if size > ctaphid.MaxPayloadLength {
		return fmt.Errorf("size %d exceeds the %d byte message limit", size, ctaphid.MaxPayloadLength)
	}

	devInfos, err := sugar.EnumerateFIDODevices(opts...)
	if err != nil {
		return err
	}

	table := pterm.TableData{{"Path", "Vendor", "Product", "Manufacturer", "Name"}}
	for _, devInfo := range devInfos {
		table = append(table, []string{
			devInfo.Path,
			fmt.Sprintf("%04x", devInfo.VendorID),
			fmt.Sprintf("%04x", devInfo.ProductID),
			devInfo.MfrStr,
			devInfo.ProductStr,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
		return err
	}

	dev, err := sugar.SelectDevice(opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = dev.Close()
	}()

	info := dev.Info()
	pterm.Info.Printfln("%s: channel %s, CTAPHID v%d, device %d.%d.%d, capabilities %#02x",
		dev.Path,
		dev.CID(),
		info.CTAPHIDProtocolVersionIdentifier,
		info.MajorDeviceVersion,
		info.MinorDeviceVersion,
		info.BuildDeviceVersion,
		info.CapabilityFlags,
	)

	ping := make([]byte, size)
	for i := 0; i < count; i++ {
		if _, err := rand.Read(ping); err != nil {
			return err
		}

		started := time.Now()
		if err := dev.Ping(ping); err != nil {
			return fmt.Errorf("ping %d: %w", i+1, err)
		}
		pterm.Success.Printfln("ping %d: %s bytes in %s", i+1, strconv.Itoa(size), time.Since(started))
	}

	if wink {
		if err := dev.Wink(); err != nil {
			pterm.Warning.Printfln("wink: %v", err)
		} else {
			pterm.Success.Println("wink")
		}
	}

	return nil
}

package properties

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/hubspot/mobile-chat-sdk-go/internal/pushtoken"
)

// DeviceSnapshot is the device state at the moment properties are sent.
type DeviceSnapshot struct {
	Model                string
	SystemName           string
	SystemVersion        string
	AppShortVersion      string
	AppBuild             string
	NotificationsAllowed bool
	ScreenWidth          float64
	ScreenHeight         float64
	ScreenScale          float64
	Orientation          Orientation
	// BatteryLevel is 0..1; negative means unavailable.
	BatteryLevel float64
	BatteryState Battery
}

// DeviceInfoProvider reports current device facts. The host implements it.
type DeviceInfoProvider interface {
	Snapshot(ctx context.Context) (DeviceSnapshot, error)
}

// DeviceInfoFunc adapts a function to DeviceInfoProvider.
type DeviceInfoFunc func(ctx context.Context) (DeviceSnapshot, error)

// Snapshot implements DeviceInfoProvider.
func (f DeviceInfoFunc) Snapshot(ctx context.Context) (DeviceSnapshot, error) {
	return f(ctx)
}

// RuntimeProvider reports what a headless process knows about itself.
type RuntimeProvider struct {
	AppShortVersion string
	AppBuild        string
}

// Snapshot implements DeviceInfoProvider.
func (p RuntimeProvider) Snapshot(context.Context) (DeviceSnapshot, error) {
	host, _ := os.Hostname()
	return DeviceSnapshot{
		Model:           host,
		SystemName:      runtime.GOOS,
		SystemVersion:   runtime.GOARCH,
		AppShortVersion: p.AppShortVersion,
		AppBuild:        p.AppBuild,
		Orientation:     OrientationUnknown,
		BatteryLevel:    -1,
		BatteryState:    BatteryUnknown,
	}, nil
}

// Finalizer merges caller properties with device facts.
type Finalizer struct {
	logger   *slog.Logger
	provider DeviceInfoProvider
}

// NewFinalizer creates a Finalizer. A nil provider uses RuntimeProvider.
func NewFinalizer(log *slog.Logger, provider DeviceInfoProvider) *Finalizer {
	if log == nil {
		log = slog.Default()
	}
	if provider == nil {
		provider = RuntimeProvider{}
	}
	return &Finalizer{
		logger:   log.With(slog.String("component", "chat_properties")),
		provider: provider,
	}
}

// Finalize returns custom overlaid with automatic values. Automatic values
// win on key collisions. custom is not modified.
func (f *Finalizer) Finalize(ctx context.Context, custom map[string]string, token []byte) map[string]string {
	out := make(map[string]string, len(custom)+12)
	for k, v := range custom {
		out[k] = v
	}

	snap, err := f.provider.Snapshot(ctx)
	if err != nil {
		f.logger.Warn("device snapshot unavailable", slog.Any("error", err))
		snap = DeviceSnapshot{BatteryLevel: -1}
	}
	Apply(out, snap, token)
	return out
}

// Apply writes the automatic properties derived from snap and token into
// props.
func Apply(props map[string]string, snap DeviceSnapshot, token []byte) {
	if snap.Model != "" {
		props[string(DeviceModel)] = snap.Model
	}
	if len(token) > 0 {
		props[string(PushToken)] = pushtoken.EncodeHex(token)
	}
	props[string(NotificationPermissions)] = fmt.Sprint(snap.NotificationsAllowed)
	props[string(OperatingSystemVersion)] = snap.SystemName + " " + snap.SystemVersion
	if snap.AppShortVersion != "" && snap.AppBuild != "" {
		props[string(AppVersion)] = snap.AppShortVersion + "." + snap.AppBuild
	}

	scale := snap.ScreenScale
	if scale <= 0 {
		scale = 1
	}
	props[string(ScreenSize)] = fmt.Sprintf("%dx%d", int(snap.ScreenWidth), int(snap.ScreenHeight))
	props[string(ScreenResolution)] = fmt.Sprintf("%dx%d", int(snap.ScreenWidth*scale), int(snap.ScreenHeight*scale))

	orientation := snap.Orientation
	if orientation == "" {
		orientation = OrientationUnknown
	}
	props[string(DeviceOrientation)] = string(orientation)

	if snap.BatteryLevel >= 0 {
		props[string(BatteryLevel)] = fmt.Sprint(int(math.Round(snap.BatteryLevel * 100)))
	}
	state := snap.BatteryState
	if state == "" {
		state = BatteryUnknown
	}
	props[string(BatteryState)] = string(state)

	props[string(Platform)] = PlatformValue
}

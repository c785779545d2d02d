// Package properties assembles the chat metadata sent when a thread opens.
package properties

// Key is a predefined chat property key. Custom keys are plain strings and
// share the same namespace.
type Key string

const (
	CameraPermissions       Key = "camera_permissions"
	PhotoLibraryPermissions Key = "photo_library_permissions"
	NotificationPermissions Key = "notification_permissions"
	LocationPermissions     Key = "location_permissions"
	Location                Key = "location"
	PushToken               Key = "push_token"
	DeviceModel             Key = "device_model"
	Platform                Key = "platform"
	OperatingSystemVersion  Key = "os_version"
	AppVersion              Key = "app_version"
	DeviceOrientation       Key = "device_orientation"
	ScreenSize              Key = "screen_size"
	ScreenResolution        Key = "screen_resolution"
	BatteryLevel            Key = "battery_level"
	BatteryState            Key = "battery_state"
)

// PlatformValue is fixed; it is not detected at runtime.
const PlatformValue = "ios"

// Orientation of the device at send time.
type Orientation string

const (
	OrientationUnknown   Orientation = "unknown"
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Battery charging state at send time.
type Battery string

const (
	BatteryUnknown   Battery = "unknown"
	BatteryCharging  Battery = "charging"
	BatteryFull      Battery = "full"
	BatteryUnplugged Battery = "unplugged"
)

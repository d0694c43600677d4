package middleware

import "github.com/labstack/echo/v4"

// ContextDeviceID is the echo context key holding the authenticated device
// identifier set by DeviceAuth.
const ContextDeviceID = "device_id"

// DeviceID returns the device identifier of the request: the authenticated
// one when DeviceAuth ran, otherwise the deviceId query parameter, otherwise
// "anon".
func DeviceID(c echo.Context) string {
	if v, ok := c.Get(ContextDeviceID).(string); ok && v != "" {
		return v
	}
	if v := c.QueryParam("deviceId"); v != "" {
		return v
	}
	return "anon"
}

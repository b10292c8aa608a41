package resources

import _ "embed"

//go:embed ui/dark/camera.svg
var uiDarkCamera []byte

//go:embed ui/dark/connected.svg
var uiDarkConnected []byte

//go:embed ui/dark/disconnected.svg
var uiDarkDisconnected []byte

//go:embed ui/dark/no_video.svg
var uiDarkNoVideo []byte

//go:embed ui/light/camera.svg
var uiLightCamera []byte

//go:embed ui/light/connected.svg
var uiLightConnected []byte

//go:embed ui/light/disconnected.svg
var uiLightDisconnected []byte

//go:embed ui/light/no_video.svg
var uiLightNoVideo []byte

package assets

import _ "embed"

//go:embed logo-color-black.svg
var LogoBlack []byte

//go:embed logo-color-white.svg
var LogoWhite []byte

//go:embed icon-plus.svg
var IconPlus []byte

//go:embed icon-logs.svg
var IconLogs []byte

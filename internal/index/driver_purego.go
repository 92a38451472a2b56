//go:build !cgo

package index

import _ "modernc.org/sqlite"

const driverName = "sqlite"

package blueair

import _ "embed"

//go:embed dashboard.json
var DashboardJSON []byte

package blueair

import (
	"fmt"
	"sort"
)

// RegionProfile holds the per-region endpoint parameters for the
// BlueAir AWS backend: the Gigya login cluster, the execute-api region
// and deployment id, and the mobile-app API key.
type RegionProfile struct {
	AuthRegion    string
	GatewayRegion string
	GatewayID     string
	APIKey        string
}

// regionProfiles is the built-in region table. The API keys are the
// published mobile-app constants, not account secrets.
var regionProfiles = map[string]RegionProfile{
	"us": {
		AuthRegion:    "us1",
		GatewayRegion: "us-east-2",
		GatewayID:     "on1keymlmh",
		APIKey:        "3_-xUbbrIY8QCbHDWQs1tLXE-CZBQ50SGElcOY5hF1euE11wCoIlNbjMGAFQ6UwhMY",
	},
	"eu": {
		AuthRegion:    "eu1",
		GatewayRegion: "eu-west-1",
		GatewayID:     "hkgmr8v960",
		APIKey:        "3_qRseYzrUJl1VyxvSJANalu_kNgQ83swB1B9uzgms58--5w6NGctWL8AyS2fvUBQ5",
	},
}

// Regions returns the supported account region codes, sorted.
func Regions() []string {
	codes := make([]string, 0, len(regionProfiles))
	for code := range regionProfiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func resolveRegion(code string) (RegionProfile, error) {
	profile, ok := regionProfiles[code]
	if !ok {
		return RegionProfile{}, &ConfigError{Reason: fmt.Sprintf("unsupported region %q", code)}
	}
	if profile.AuthRegion == "" || profile.GatewayRegion == "" || profile.GatewayID == "" || profile.APIKey == "" {
		return RegionProfile{}, &ConfigError{Reason: fmt.Sprintf("incomplete profile for region %q", code)}
	}
	return profile, nil
}

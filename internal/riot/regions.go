// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package riot

import (
	"fmt"
	"strings"
)

// platformToRegion maps platform routing values (euw1, na1, ...) to the
// regional cluster that serves account-v1 and match-v5 for them.
var platformToRegion = map[string]string{
	"na1": "americas",
	"br1": "americas",
	"la1": "americas",
	"la2": "americas",

	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"me1":  "europe",

	"kr":  "asia",
	"jp1": "asia",

	"oc1": "sea",
	"sg2": "sea",
	"tw2": "sea",
	"vn2": "sea",
}

// RegionForPlatform resolves a platform to its regional cluster.
func RegionForPlatform(platform string) (string, error) {
	region, ok := platformToRegion[strings.ToLower(platform)]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	return region, nil
}

// ValidPlatform reports whether the platform routing value is known.
func ValidPlatform(platform string) bool {
	_, ok := platformToRegion[strings.ToLower(platform)]
	return ok
}

// RegionForMatchID resolves the regional cluster from a match ID, which
// carries its platform as an uppercase prefix (EUW1_7123...).
func RegionForMatchID(matchID string) (string, error) {
	platform, _, ok := strings.Cut(matchID, "_")
	if !ok {
		return "", fmt.Errorf("malformed match id %q", matchID)
	}
	return RegionForPlatform(platform)
}

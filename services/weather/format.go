// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// Text renders the forecast as a header line followed by one line per day:
//
//	Forecast for 40.71, -74.01 (America/New_York)
//	2025-01-01: high 5.2°C, low -1.3°C
func (f *Forecast) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast for %s, %s (%s)", num(f.Latitude), num(f.Longitude), f.Timezone)

	n := min(len(f.Daily.Time), len(f.Daily.Temperature2mMax), len(f.Daily.Temperature2mMin))
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "\n%s: high %s%s, low %s%s",
			f.Daily.Time[i],
			num(f.Daily.Temperature2mMax[i]), f.DailyUnits.Temperature2mMax,
			num(f.Daily.Temperature2mMin[i]), f.DailyUnits.Temperature2mMin,
		)
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

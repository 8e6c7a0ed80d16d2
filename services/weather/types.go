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

// DailyUnits carries the unit strings for each daily series.
type DailyUnits struct {
	Time             string `json:"time"`
	Temperature2mMax string `json:"temperature_2m_max"`
	Temperature2mMin string `json:"temperature_2m_min"`
}

// Daily holds positionally aligned daily series. The upstream guarantees equal
// lengths; the formatter stops at the shortest one anyway.
type Daily struct {
	Time             []string  `json:"time"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
}

// Forecast is the parsed Open-Meteo daily forecast, returned as received.
type Forecast struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	GenerationTimeMs float64    `json:"generationtime_ms"`
	UTCOffsetSeconds int        `json:"utc_offset_seconds"`
	Timezone         string     `json:"timezone"`
	Elevation        float64    `json:"elevation"`
	DailyUnits       DailyUnits `json:"daily_units"`
	Daily            Daily      `json:"daily"`
}

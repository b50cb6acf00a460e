// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"math"
	"strconv"
	"time"
)

// CoerceTime converts a raw timestamp value from source data into Unix
// seconds. This is the single coercion rule for every timestamp field:
//
//   - float/int: floored to integer seconds
//   - string: parsed as RFC 3339, or as a numeric epoch value
//     (millisecond-scale values are divided down to seconds)
//   - anything else: nil
//
// Returning nil rather than an error keeps the normalizer total;
// timestamps are nullable throughout the data model.
func CoerceTime(v any) *int64 {
	switch t := v.(type) {
	case float64:
		return secondsPtr(int64(math.Floor(t)))
	case int64:
		return secondsPtr(t)
	case int:
		return secondsPtr(int64(t))
	case string:
		if t == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return secondsPtr(parsed.Unix())
		}
		if n, err := strconv.ParseFloat(t, 64); err == nil {
			return secondsPtr(epochSeconds(int64(math.Floor(n))))
		}
		return nil
	default:
		return nil
	}
}

// epochSeconds scales millisecond-precision epoch values to seconds.
// Anything past year 33658 in seconds is assumed to be milliseconds.
func epochSeconds(n int64) int64 {
	if n > 1_000_000_000_000 {
		return n / 1000
	}
	return n
}

func secondsPtr(n int64) *int64 {
	return &n
}

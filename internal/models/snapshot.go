// Package models defines the data carried from the collector to the wire encoder.
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnknownTemperature is the wire sentinel for a temperature that could not be read.
const UnknownTemperature = "--"

// celsiusSuffix is appended to known temperatures on the wire.
const celsiusSuffix = "°C"

// bytesPerGiB converts memory byte counts to the gigabyte figures shown on the board.
const bytesPerGiB = 1 << 30

// SystemSnapshot is one immutable set of host readings for a single tick.
// Usage and memory figures are already rounded to one decimal place.
type SystemSnapshot struct {
	CapturedAt time.Time
	CPUUsage   float64
	GPUUsage   float64
	RAMUsage   float64
	RAMTotal   float64 // GiB
	RAMUsed    float64 // GiB
	CPUTemp    Temperature
	GPUTemp    Temperature
}

// Temperature is a Celsius reading that may be unknown.
type Temperature struct {
	Celsius float64
	Known   bool
}

// Celsius returns a known temperature rounded to one decimal place.
func Celsius(v float64) Temperature {
	return Temperature{Celsius: Round1(v), Known: true}
}

// TemperatureFromPtr converts an optional reading into a Temperature.
// A missing or non-finite reading is unknown.
func TemperatureFromPtr(v *float64) Temperature {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Temperature{}
	}
	return Celsius(*v)
}

// String renders the temperature as shown on the board, e.g. "45.0°C" or "--".
func (t Temperature) String() string {
	if !t.Known {
		return UnknownTemperature
	}
	return strconv.FormatFloat(t.Celsius, 'f', 1, 64) + celsiusSuffix
}

// ParseTemperature is the inverse of Temperature.String.
func ParseTemperature(s string) (Temperature, error) {
	if s == UnknownTemperature {
		return Temperature{}, nil
	}
	num, ok := strings.CutSuffix(s, celsiusSuffix)
	if !ok {
		return Temperature{}, fmt.Errorf("temperature %q: missing %s suffix", s, celsiusSuffix)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Temperature{}, fmt.Errorf("temperature %q: %w", s, err)
	}
	return Celsius(v), nil
}

// Round1 rounds v to one decimal place, half away from zero: 8.25 becomes
// 8.3, never the banker's 8.2.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BytesToGiB converts a byte count to GiB rounded to one decimal place.
func BytesToGiB(b uint64) float64 {
	return Round1(float64(b) / bytesPerGiB)
}

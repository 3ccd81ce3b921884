// Package wire implements the line-delimited JSON frame the InfoBoard firmware
// consumes: one "system" record per line, numbers with exactly one decimal.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Guliveer/infoboard/agent/internal/models"
)

// RecordType is the discriminator of system snapshot records.
const RecordType = "system"

// Delimiter terminates every frame.
const Delimiter = '\n'

// TimestampLayout is ISO-8601 with nanoseconds and the local UTC offset.
const TimestampLayout = time.RFC3339Nano

// Decimal is a number that always marshals with exactly one decimal digit,
// so 55 is sent as 55.0 like the firmware expects.
type Decimal float64

// MarshalJSON implements json.Marshaler.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, models.Round1(float64(d)), 'f', 1, 64), nil
}

// Record is the on-wire shape. Field order is the key order of the frame.
type Record struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	CPUUsage  Decimal `json:"cpu_usage"`
	GPUUsage  Decimal `json:"gpu_usage"`
	RAMUsage  Decimal `json:"ram_usage"`
	RAMTotal  Decimal `json:"ram_total"`
	RAMUsed   Decimal `json:"ram_used"`
	CPUTemp   string  `json:"cpu_temp"`
	GPUTemp   string  `json:"gpu_temp"`
}

// NewRecord maps a snapshot onto its wire record.
func NewRecord(s models.SystemSnapshot) Record {
	return Record{
		Type:      RecordType,
		Timestamp: s.CapturedAt.Format(TimestampLayout),
		CPUUsage:  Decimal(s.CPUUsage),
		GPUUsage:  Decimal(s.GPUUsage),
		RAMUsage:  Decimal(s.RAMUsage),
		RAMTotal:  Decimal(s.RAMTotal),
		RAMUsed:   Decimal(s.RAMUsed),
		CPUTemp:   s.CPUTemp.String(),
		GPUTemp:   s.GPUTemp.String(),
	}
}

// Encode serializes a snapshot into one delimited frame. The output is stable:
// equal snapshots always produce identical bytes.
func Encode(s models.SystemSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoder.Encode appends the '\n' delimiter itself.
	if err := enc.Encode(NewRecord(s)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a single frame, with or without its trailing delimiter.
func Decode(frame []byte) (models.SystemSnapshot, error) {
	frame = bytes.TrimSuffix(frame, []byte{Delimiter})
	if bytes.IndexByte(frame, Delimiter) >= 0 {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: embedded delimiter")
	}

	var raw struct {
		Type      string  `json:"type"`
		Timestamp string  `json:"timestamp"`
		CPUUsage  float64 `json:"cpu_usage"`
		GPUUsage  float64 `json:"gpu_usage"`
		RAMUsage  float64 `json:"ram_usage"`
		RAMTotal  float64 `json:"ram_total"`
		RAMUsed   float64 `json:"ram_used"`
		CPUTemp   string  `json:"cpu_temp"`
		GPUTemp   string  `json:"gpu_temp"`
	}
	if err := json.Unmarshal(frame, &raw); err != nil {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: %w", err)
	}
	if raw.Type != RecordType {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: unexpected record type %q", raw.Type)
	}

	ts, err := time.Parse(TimestampLayout, raw.Timestamp)
	if err != nil {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: timestamp: %w", err)
	}
	cpuTemp, err := models.ParseTemperature(raw.CPUTemp)
	if err != nil {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: cpu_temp: %w", err)
	}
	gpuTemp, err := models.ParseTemperature(raw.GPUTemp)
	if err != nil {
		return models.SystemSnapshot{}, fmt.Errorf("decode frame: gpu_temp: %w", err)
	}

	return models.SystemSnapshot{
		CapturedAt: ts,
		CPUUsage:   raw.CPUUsage,
		GPUUsage:   raw.GPUUsage,
		RAMUsage:   raw.RAMUsage,
		RAMTotal:   raw.RAMTotal,
		RAMUsed:    raw.RAMUsed,
		CPUTemp:    cpuTemp,
		GPUTemp:    gpuTemp,
	}, nil
}

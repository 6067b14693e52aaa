package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownKind is returned for envelopes whose kind is neither sample nor series.
var ErrUnknownKind = errors.New("unknown message kind")

// ParseEnvelope decodes a source-topic message and checks that the payload
// matching its kind is present.
func ParseEnvelope(raw RawEvent) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}

	switch env.Kind {
	case KindSample:
		if env.Sample == nil {
			return Envelope{}, newValidationError("sample", "required for kind sample")
		}
	case KindSeries:
		if env.Series == nil {
			return Envelope{}, newValidationError("series", "required for kind series")
		}
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	return env, nil
}

// SampleID derives a stable ID from the sample's identity and measurements.
func SampleID(s WaterSample) string {
	return generateID(KindSample, fmt.Sprintf("%s|%d|%s|%s|%s|%g|%g",
		s.StationCode, s.Year,
		formatOptional(s.DissolvedOxygen), formatOptional(s.PH), formatOptional(s.BOD),
		s.FecalColiform, s.TotalColiform,
	))
}

// SeriesID derives a stable ID from the station and the span of its readings.
func SeriesID(s Series) string {
	first, last := "", ""
	if n := len(s.Readings); n > 0 {
		first = s.Readings[0].Timestamp.Format(DayLayout)
		last = s.Readings[n-1].Timestamp.Format(DayLayout)
	}
	return generateID(KindSeries, fmt.Sprintf("%s|%s|%s|%d", s.StationID, first, last, len(s.Readings)))
}

// SerializeResult marshals a computed result into a sink message keyed by id.
func SerializeResult(kind MessageKind, id string, processedAt time.Time, result any) (OutputEvent, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize %s result: %w", kind, err)
	}
	return OutputEvent{
		Key:   []byte(id),
		Value: data,
		Headers: map[string]string{
			"kind":         string(kind),
			"processed_at": processedAt.Format(time.RFC3339),
		},
	}, nil
}

func generateID(kind MessageKind, identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return string(kind) + "-" + hex.EncodeToString(hash[:8])
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

package domain

import (
	"context"
	"time"
)

// MessageKind selects the payload carried by an Envelope.
type MessageKind string

const (
	KindSample MessageKind = "sample"
	KindSeries MessageKind = "series"
)

// Envelope is the JSON shape published to the source topic by the DWLR
// gateway and the mock feed.
type Envelope struct {
	Kind   MessageKind  `json:"kind"`
	Sample *WaterSample `json:"sample,omitempty"`
	Series *Series      `json:"series,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Package ingest reads asset observations and feeds them through the
// reconciler one at a time.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/acksell/assetsync/asset"
	"github.com/google/uuid"
)

// Record is the incoming shape of an asset. The event time is not part of
// it; it travels next to the record. Field names match case-insensitively.
type Record struct {
	AssetID    uuid.UUID        `json:"assetId"`
	AssetName  string           `json:"assetName"`
	AccountID  int32            `json:"accountId"`
	Properties asset.Properties `json:"properties"`
}

// Asset combines the record with the time it was observed.
func (r Record) Asset(eventTime time.Time) asset.Asset {
	return asset.Asset{
		AssetID:    r.AssetID,
		AssetName:  r.AssetName,
		AccountID:  r.AccountID,
		EventTime:  eventTime,
		Properties: r.Properties.Clone(),
	}
}

func (r Record) validate() error {
	if r.AssetID == uuid.Nil {
		return errors.New("assetId is required")
	}
	return nil
}

// Observation is a record and the time it was observed.
type Observation struct {
	Record    Record
	EventTime time.Time
}

func (o Observation) Asset() asset.Asset {
	return o.Record.Asset(o.EventTime)
}

type envelope struct {
	EventTime *time.Time      `json:"eventTime"`
	Asset     json.RawMessage `json:"asset"`
}

// ReadObservations decodes a JSON array or a stream of JSON values. Each
// value is either a bare record or an object {"eventTime": ..., "asset": {...}}.
// A bare record may carry its own top-level "eventTime"; records without
// one are observed at defaultTime.
func ReadObservations(r io.Reader, defaultTime time.Time) ([]Observation, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	dec := json.NewDecoder(br)
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode observations: %w", err)
		}
	} else {
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode observation %d: %w", len(raws), err)
			}
			raws = append(raws, raw)
		}
	}

	out := make([]Observation, 0, len(raws))
	for i, raw := range raws {
		o, err := decodeObservation(raw, defaultTime)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func decodeObservation(raw json.RawMessage, defaultTime time.Time) (Observation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Observation{}, err
	}
	o := Observation{EventTime: defaultTime}
	if env.EventTime != nil {
		o.EventTime = *env.EventTime
	}
	body := []byte(raw)
	if len(env.Asset) > 0 {
		body = env.Asset
	}
	if err := json.Unmarshal(body, &o.Record); err != nil {
		return Observation{}, err
	}
	if err := o.Record.validate(); err != nil {
		return Observation{}, err
	}
	if o.EventTime.IsZero() {
		return Observation{}, errors.New("no event time given")
	}
	return o, nil
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, r.UnreadByte()
	}
}

// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package checkin implements the device poll protocol: the CBOR wire codec
// for the embedded client and the coordinator that turns one poll into a
// history update and a feeding instruction.
package checkin

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ErrProtocol marks an undecodable device payload. Handlers recover from it
// with a safe default response instead of failing the poll loop.
var ErrProtocol = errors.New("malformed device payload")

// Request is the device's poll message. ElapsedMSSinceLastFeeding is the
// device's own measurement of time since it last dispensed food; it is
// optional and may be skewed, which is why the service converts it to a
// server-relative instant immediately.
type Request struct {
	ElapsedMSSinceLastFeeding *uint64 `cbor:"elapsed_ms_since_last_feeding,omitempty"`
}

// Response is the service's answer to a poll.
type Response struct {
	// DelayUntilNextCheckInMS tells the device when to poll again.
	DelayUntilNextCheckInMS uint64 `cbor:"delay_until_next_checkin_ms"`

	// DelayUntilNextFeedingMS tells the device when to feed. Absent when
	// the schedule never feeds automatically.
	DelayUntilNextFeedingMS *uint64 `cbor:"delay_until_next_feeding_ms,omitempty"`

	// ScoopsToFeed is the portion count for the next feeding.
	ScoopsToFeed uint32 `cbor:"scoops_to_feed"`

	// LastFeedingTimeConsumed confirms the reported feeding was recorded,
	// so the device may clear its local elapsed-time counter.
	LastFeedingTimeConsumed bool `cbor:"last_feeding_time_consumed"`
}

// DecodeRequest parses a device poll payload. Any decode failure is an
// ErrProtocol.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := cbor.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return req, nil
}

// Encode serializes the response for the device.
func (r Response) Encode() ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode check-in response: %w", err)
	}
	return data, nil
}

// DefaultResponse is the safe fallback sent when a poll cannot be handled:
// no feeding instruction, retry after the given delay.
func DefaultResponse(retryDelay time.Duration) Response {
	return Response{
		DelayUntilNextCheckInMS: uint64(retryDelay.Milliseconds()),
		ScoopsToFeed:            0,
		LastFeedingTimeConsumed: false,
	}
}

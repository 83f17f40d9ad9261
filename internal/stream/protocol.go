// Package stream serves a running simulation over WebSocket. Messages are
// JSON envelopes {"t": type, "p": payload}.
package stream

import (
	"encoding/json"
	"fmt"
)

const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgGrab    = "grab"
	MsgMove    = "move"
	MsgRelease = "release"
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// Welcome is sent once on connect with the scene topology.
type Welcome struct {
	Scene     string   `json:"scene"`
	Dt        float64  `json:"dt"`
	Particles int      `json:"particles"`
	Edges     [][2]int `json:"edges"`
}

// State is one broadcast frame.
type State struct {
	Tick      int          `json:"tick"`
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
	Contacts  int          `json:"contacts"`
	Grabbed   int          `json:"grabbed"` // particle index, -1 if none
}

// Pointer is the payload of grab and move: a world-space ray.
type Pointer struct {
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	var raw json.RawMessage
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = pb
	}
	return json.Marshal(Envelope{T: t, P: raw})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.T == "" {
		return Envelope{}, fmt.Errorf("decode: missing message type")
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MatchStatus classifies the outcome for one track.
type MatchStatus int

const (
	StatusAdded MatchStatus = iota
	StatusNotFound
	StatusError
)

var statusNames = map[MatchStatus]string{
	StatusAdded:    "Added",
	StatusNotFound: "NotFound",
	StatusError:    "Error",
}

func (s MatchStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MatchStatus(%d)", int(s))
}

// MarshalText implements [encoding.TextMarshaler].
func (s MatchStatus) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown match status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *MatchStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown match status %q", string(text))
}

// MatchResult is the outcome of resolving and appending one track.
//
// ItemID is set only for [StatusAdded]; Err only for [StatusError].
type MatchResult struct {
	Status MatchStatus
	ItemID string
	Err    error
}

// Matched records a track appended as itemID.
func Matched(itemID string) MatchResult {
	return MatchResult{Status: StatusAdded, ItemID: itemID}
}

// NotFound records a track with no search hit.
func NotFound() MatchResult {
	return MatchResult{Status: StatusNotFound}
}

// Failed records a track whose search or append failed with err.
func Failed(err error) MatchResult {
	return MatchResult{Status: StatusError, Err: err}
}

// TrackResult pairs a track with its outcome.
type TrackResult struct {
	Track  Track
	Result MatchResult
}

type trackResultJSON struct {
	Track        string      `json:"track"`
	TargetItemID *string     `json:"targetItemId"`
	Status       MatchStatus `json:"status"`
	Error        *string     `json:"error"`
}

// MarshalJSON renders {track, targetItemId, status, error}, with null for absent fields.
func (r TrackResult) MarshalJSON() ([]byte, error) {
	out := trackResultJSON{Track: string(r.Track), Status: r.Result.Status}
	if r.Result.Status == StatusAdded {
		id := r.Result.ItemID
		out.TargetItemID = &id
	}
	if r.Result.Err != nil {
		msg := r.Result.Err.Error()
		out.Error = &msg
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses [TrackResult.MarshalJSON]. Error text comes back as a plain error.
func (r *TrackResult) UnmarshalJSON(data []byte) error {
	var in trackResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Track = Track(in.Track)
	r.Result = MatchResult{Status: in.Status}
	if in.TargetItemID != nil {
		r.Result.ItemID = *in.TargetItemID
	}
	if in.Error != nil {
		r.Result.Err = errors.New(*in.Error)
	}
	return nil
}

// SyncReport is the ordered outcome of one synchronization.
//
// Results has one entry per source track, in source order, unless Cancelled is set,
// in which case it holds the tracks processed before cancellation.
type SyncReport struct {
	ID                string        `json:"id,omitempty"`
	SourcePlaylist    string        `json:"sourcePlaylist,omitempty"`
	TargetPlaylistID  string        `json:"targetPlaylistId,omitempty"`
	TotalTracks       int           `json:"totalTracks"`
	SuccessfullyAdded int           `json:"successfullyAdded"`
	Results           []TrackResult `json:"results"`
	Cancelled         bool          `json:"cancelled,omitempty"`
}

// NewSyncReport returns an empty report with room for n results.
func NewSyncReport(id, sourcePlaylist, targetPlaylistID string, n int) *SyncReport {
	return &SyncReport{
		ID:               id,
		SourcePlaylist:   sourcePlaylist,
		TargetPlaylistID: targetPlaylistID,
		TotalTracks:      n,
		Results:          make([]TrackResult, 0, n),
	}
}

// Record appends the outcome for track, keeping SuccessfullyAdded in step.
func (r *SyncReport) Record(track Track, result MatchResult) {
	r.Results = append(r.Results, TrackResult{Track: track, Result: result})
	if result.Status == StatusAdded {
		r.SuccessfullyAdded++
	}
}

// Counts tallies results by status.
func (r *SyncReport) Counts() map[MatchStatus]int {
	counts := map[MatchStatus]int{StatusAdded: 0, StatusNotFound: 0, StatusError: 0}
	for _, res := range r.Results {
		counts[res.Result.Status]++
	}
	return counts
}

package models

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cached lookup. Location and Date are compared exactly;
// "Boston" and "boston" are distinct keys.
type Key struct {
	Location string
	Date     string
}

func (k Key) String() string {
	return k.Location + "/" + k.Date
}

// UpstreamError is the record returned when the provider answers with a
// non-200 status or a non-JSON body.
type UpstreamError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is the value served for a Key: either the provider's JSON body, kept
// byte for byte, or an UpstreamError. Exactly one of the two is set.
type Result struct {
	Payload json.RawMessage
	Error   *UpstreamError
}

// Failed reports whether the result carries an upstream error record.
func (r Result) Failed() bool {
	return r.Error != nil
}

// MarshalJSON encodes the payload verbatim or the error record.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(r.Error)
	}
	if len(r.Payload) == 0 {
		return []byte("{}"), nil
	}
	return r.Payload, nil
}

// UnmarshalJSON decodes a serialized Result. An object whose only keys are
// "error" (string) and "status" (number) is read back as an UpstreamError;
// any other valid JSON value becomes the payload unchanged.
func (r *Result) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("decode result: invalid JSON")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil && len(fields) == 2 && fields["error"] != nil && fields["status"] != nil {
		var rec UpstreamError
		if err := json.Unmarshal(data, &rec); err == nil {
			*r = Result{Error: &rec}
			return nil
		}
	}
	*r = Result{Payload: append(json.RawMessage(nil), data...)}
	return nil
}

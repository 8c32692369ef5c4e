package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jo-hoe/aisign/internal/verdict"
)

// Confidence holds the confidence value as the service sent it. The field is a
// string in some deployments and a number in others; both keep their textual form.
type Confidence string

func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Confidence(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("confidence must be a string or number: %w", err)
	}
	*c = Confidence(n.String())
	return nil
}

func (c Confidence) String() string {
	return string(c)
}

// VerifyResult is the verdict returned by /verify.
type VerifyResult struct {
	DetectionStatus string     `json:"detection_status"`
	Confidence      Confidence `json:"confidence"`
	Context         string     `json:"context,omitempty"`
	Decision        string     `json:"decision"`
	Reason          string     `json:"reason"`
}

// Verdict returns the typed decision; unrecognized values map to verdict.Unknown.
func (r *VerifyResult) Verdict() verdict.Decision {
	return verdict.ParseDecision(r.Decision)
}

type errorBody struct {
	Error string `json:"error"`
}

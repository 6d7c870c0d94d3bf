package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// Envelope is the decoded form of every backend body: exactly one of a
// success carrying Data or a failure carrying Message. Wrapped bodies
// ({success, data, message}) and flat bodies (no success key) both decode
// into it.
type Envelope struct {
	Outcome Outcome
	Data    json.RawMessage
	Message string
	Status  int
	Wrapped bool
}

func (e Envelope) Err() error {
	if e.Outcome == OutcomeSuccess {
		return nil
	}
	return &BusinessError{Status: e.Status, Message: e.Message}
}

type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (w wireEnvelope) message() string {
	if w.Error != nil && w.Error.Message != "" {
		return w.Error.Message
	}
	return w.Message
}

func DecodeEnvelope(status int, body []byte) (Envelope, error) {
	ok := status >= 200 && status < 300
	body = bytes.TrimSpace(body)

	failure := func(message string) Envelope {
		return Envelope{Outcome: OutcomeFailure, Message: message, Status: status}
	}

	if len(body) == 0 {
		if ok {
			return Envelope{Outcome: OutcomeSuccess, Status: status}, nil
		}
		return failure(""), nil
	}

	if body[0] != '{' {
		if !ok {
			return failure(""), nil
		}
		if !json.Valid(body) {
			return Envelope{}, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
		}
		return Envelope{Outcome: OutcomeSuccess, Data: json.RawMessage(body), Status: status}, nil
	}

	var wire wireEnvelope
	if err := json.Unmarshal(body, &wire); err != nil {
		if !ok {
			return failure(""), nil
		}
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if wire.Success == nil {
		if !ok {
			return failure(wire.message()), nil
		}
		return Envelope{Outcome: OutcomeSuccess, Data: json.RawMessage(body), Status: status}, nil
	}

	if !*wire.Success || !ok {
		env := failure(wire.message())
		env.Wrapped = true
		return env, nil
	}
	return Envelope{Outcome: OutcomeSuccess, Data: wire.Data, Status: status, Wrapped: true}, nil
}

func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func decodeInto(raw json.RawMessage, v interface{}) error {
	if !hasData(raw) {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

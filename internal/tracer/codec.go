package tracer

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var backlogEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// EncodeBacklog serializes events for publication to the registry.
func EncodeBacklog(events []Event) ([]byte, error) {
	b, err := backlogEncMode.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode backlog: %w", err)
	}
	return b, nil
}

func DecodeBacklog(data []byte) ([]Event, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var events []Event
	if err := cbor.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode backlog: %w", err)
	}
	return events, nil
}

package mqtt

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// States contains all state changes that were published.
	States []StateChange

	// StatePayloads contains the JSON payloads for state changes.
	StatePayloads [][]byte

	// Acks contains all acknowledgements that were published.
	Acks []Ack

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishStateError, if set, will be returned by PublishState.
	PublishStateError error

	// PublishAckError, if set, will be returned by PublishAck.
	PublishAckError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishState records the state change.
func (f *FakePublisher) PublishState(change StateChange) error {
	if f.PublishStateError != nil {
		return f.PublishStateError
	}

	f.States = append(f.States, change)

	payload, err := FormatStatePayload(change)
	if err != nil {
		return err
	}
	f.StatePayloads = append(f.StatePayloads, payload)

	return nil
}

// PublishAck records the acknowledgement.
func (f *FakePublisher) PublishAck(ack Ack) error {
	if f.PublishAckError != nil {
		return f.PublishAckError
	}
	f.Acks = append(f.Acks, ack)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.States = nil
	f.StatePayloads = nil
	f.Acks = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishStateError = nil
	f.PublishAckError = nil
	f.PublishSystemError = nil
	f.Connected = false
}

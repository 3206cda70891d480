package queue

import "testing"

func TestMailEvent_RoundTrip(t *testing.T) {
	event := NewVerificationMailEvent("user@example.com", "User Name", "654321")

	values, err := event.ToMap()
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	if values["type"] != EventVerificationMail {
		t.Errorf("type field = %v, want %s", values["type"], EventVerificationMail)
	}

	parsed, err := ParseMailEvent(values)
	if err != nil {
		t.Fatalf("ParseMailEvent: %v", err)
	}
	if parsed.Recipient != event.Recipient || parsed.Code != event.Code || parsed.Type != event.Type {
		t.Errorf("parsed = %+v, want %+v", parsed, event)
	}
}

func TestParseMailEvent_MissingData(t *testing.T) {
	_, err := ParseMailEvent(map[string]interface{}{"type": EventResetMail})
	if err == nil {
		t.Fatal("expected error for missing data field")
	}
}

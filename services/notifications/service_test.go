package notifications

import "testing"

func TestQueuedConstructors(t *testing.T) {
	n := Queued("Session auto-completed", "closed with incomplete tasks", "warning")
	if n.Title != "Session auto-completed" || n.Message != "closed with incomplete tasks" || n.Type != "warning" {
		t.Fatalf("unexpected queue item: %+v", n)
	}
	if n.Data != nil {
		t.Fatalf("plain Queued must carry no data payload")
	}

	payload := map[string]uint{"session_id": 42}
	nd := QueuedWithData("Session auto-completed", "closed", "warning", payload)
	got, ok := nd.Data.(map[string]uint)
	if !ok || got["session_id"] != 42 {
		t.Fatalf("data payload not preserved: %+v", nd.Data)
	}
}

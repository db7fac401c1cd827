package bus

import "testing"

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	b := New()

	got := make([]interface{}, 0, 2)
	b.Subscribe(SessionCompleted, func(payload interface{}) {
		got = append(got, payload)
	})
	b.Subscribe(SessionCompleted, func(payload interface{}) {
		got = append(got, payload)
	})

	b.Publish(SessionCompleted, "outcome")
	if len(got) != 2 {
		t.Fatalf("expected both handlers called, got %d", len(got))
	}
	if got[0] != "outcome" || got[1] != "outcome" {
		t.Errorf("payload not delivered: %v", got)
	}
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	b := New()

	calls := 0
	b.Subscribe(BreakTaken, func(interface{}) { calls++ })

	b.Publish(SessionCompleted, nil)
	b.Publish(ExerciseCompleted, nil)
	if calls != 0 {
		t.Errorf("handler called for foreign topics %d times", calls)
	}

	b.Publish(BreakTaken, nil)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	b := New()
	b.Publish(SessionCompleted, nil) // must not panic
}

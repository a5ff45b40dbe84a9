package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type requestUpdated struct {
	requestID string
}

func captureLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_DeliversToMatchingSubscriber(t *testing.T) {
	log, _ := captureLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)

	var got string
	publisher.Subscribe(func(e *requestUpdated) {
		got = e.requestID
	})
	publisher.Publish(&requestUpdated{requestID: "req-1"})

	if got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
}

func TestPublisher_NoMatchingSubscriberIsLogged(t *testing.T) {
	type otherEvent struct{}

	log, buf := captureLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *requestUpdated) {
		t.Error("should not be called")
	})

	publisher.Publish(&otherEvent{})

	if !strings.Contains(buf.String(), "no subscribers matched") {
		t.Errorf("expected a warning about unmatched event, got: %q", buf.String())
	}
}

func TestPublisher_PanicRecovery(t *testing.T) {
	log, buf := captureLogger(logrus.ErrorLevel)
	publisher := NewEventPublisher(log)

	called := false
	publisher.Subscribe(func(e *requestUpdated) {
		panic("boom")
	})
	publisher.Subscribe(func(e *requestUpdated) {
		called = true
	})

	publisher.Publish(&requestUpdated{requestID: "req-2"})

	if !called {
		t.Error("handler after the panicking one should still run")
	}
	if !strings.Contains(buf.String(), "panicked") {
		t.Errorf("panic should have been logged, got: %q", buf.String())
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	log, _ := captureLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)

	handler := func(e *requestUpdated) {
		t.Error("unsubscribed handler should not be called")
	}
	publisher.Subscribe(handler)
	if publisher.SubscribersCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", publisher.SubscribersCount())
	}

	publisher.Unsubscribe(handler)
	if publisher.SubscribersCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", publisher.SubscribersCount())
	}

	publisher.Publish(&requestUpdated{requestID: "req-3"})
}

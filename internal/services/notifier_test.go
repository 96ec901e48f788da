package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"event-builder/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubNubNotifier_Notify(t *testing.T) {
	var (
		gotChannel string
		gotMessage any
	)
	n := &PubNubNotifier{publish: func(channel string, message any) error {
		gotChannel, gotMessage = channel, message
		return nil
	}}

	msg := Notification{Type: NotificationSubmitted, DraftID: "draft-1", EventID: "evt-1", Message: "Event submitted"}
	require.NoError(t, n.Notify("user-1", msg))
	assert.Equal(t, "user-user-1", gotChannel)
	assert.Equal(t, msg, gotMessage)

	n.publish = func(string, any) error { return errors.New("403 forbidden") }
	assert.ErrorContains(t, n.Notify("user-1", msg), "pubnub publish")
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_PublishSubmitted(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	rec := models.SubmissionRecord{
		DraftID:     "draft-1",
		OwnerID:     "user-1",
		EventID:     "evt-1",
		Outcome:     models.SubmissionSucceeded,
		SubmittedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishSubmitted(context.Background(), rec))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("draft-1"), msg.Key)
	var decoded models.SubmissionRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "evt-1", decoded.EventID)
	assert.Contains(t, msg.Headers, kafka.Header{Key: "operation", Value: []byte("event.submitted")})

	w.err = errors.New("leader not available")
	assert.ErrorContains(t, p.PublishSubmitted(context.Background(), rec), "kafka write")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher("localhost:9092", "event-builder.events.submitted")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "event-builder.events.submitted", w.Topic)
	assert.Equal(t, "localhost:9092", w.Addr.String())
}

func TestMemorySubmissionLog_List(t *testing.T) {
	l := NewMemorySubmissionLog()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, owner := range []string{"user-1", "user-2", "user-1", "user-1"} {
		require.NoError(t, l.Record(ctx, models.SubmissionRecord{
			DraftID:     "d",
			OwnerID:     owner,
			Title:       string(rune('a' + i)),
			SubmittedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := l.List(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
}

package services

import (
	"fmt"

	pubnub "github.com/pubnub/go/v7"
)

const (
	NotificationSubmitted = "event_submitted"
	NotificationRejected  = "submission_rejected"
	NotificationFailed    = "submission_failed"
)

// Notification is the message shown to the organizer after a submit.
type Notification struct {
	Type    string `json:"type"`
	DraftID string `json:"draft_id"`
	EventID string `json:"event_id,omitempty"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ownerID string, n Notification) error
}

func organizerChannel(ownerID string) string {
	return fmt.Sprintf("user-%s", ownerID)
}

// PubNubNotifier publishes notifications on the organizer's user channel.
type PubNubNotifier struct {
	publish func(channel string, message any) error
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{
		publish: func(channel string, message any) error {
			_, _, err := pn.Publish().
				Channel(channel).
				Message(message).
				Execute()
			return err
		},
	}
}

func (n *PubNubNotifier) Notify(ownerID string, msg Notification) error {
	if err := n.publish(organizerChannel(ownerID), msg); err != nil {
		return fmt.Errorf("pubnub publish: %w", err)
	}
	return nil
}

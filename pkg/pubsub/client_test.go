package pubsub

import (
	"context"
	"testing"

	"github.com/homefix/homeservices-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "homesvc-prod"}
	cases := map[string]string{
		"notifications":                             "projects/homesvc-prod/topics/notifications",
		" notifications ":                           "projects/homesvc-prod/topics/notifications",
		"projects/other/topics/notifications":       "projects/other/topics/notifications",
		"":                                          "",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}

	var nilClient *Client
	if got := nilClient.topicResourceName("x"); got != "" {
		t.Fatalf("nil client should resolve nothing, got %q", got)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{NotificationTopic: "n"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil); err != errNoTopic {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClientPublisher(t *testing.T) {
	var c *Client
	if c.NotificationPublisher() != nil {
		t.Fatal("expected nil publisher from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

package pubsub

import "github.com/charmbracelet/log"

type noopClient struct{}

// NewNoop returns a client that drops every message. It is used when no
// GCP project is configured.
func NewNoop() PubSubClient {
	return noopClient{}
}

func (noopClient) SendMessage(topic EventType, data any) error {
	log.Debug("Pub/Sub disabled, dropping message", "topic", topic)
	return nil
}

func (noopClient) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (noopClient) Close() error {
	return nil
}

package events

// ProducerOption adjusts an EventProducer during construction.
type ProducerOption func(e *EventProducer)

// WithOutputTopic overrides the default topic events are written to.
func WithOutputTopic(topic string) ProducerOption {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

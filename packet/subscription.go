package packet

// MaxSubscriptions bounds a single SUBSCRIBE/UNSUBSCRIBE packet's topic
// list, and MaxTopicLen bounds each topic filter — a fixed-capacity,
// allocation-free representation suitable for constrained devices.
const (
	MaxSubscriptions = 10
	MaxTopicLen      = 32
)

// TopicFilter is one (topic, QoS) pair within a SUBSCRIBE/UNSUBSCRIBE
// request. QoS is ignored for UNSUBSCRIBE.
type TopicFilter struct {
	topic [MaxTopicLen]byte
	n     uint8
	QoS   uint8
}

// NewTopicFilter builds a TopicFilter, failing if topic exceeds
// MaxTopicLen bytes.
func NewTopicFilter(topic string, qos uint8) (TopicFilter, error) {
	var tf TopicFilter
	if len(topic) == 0 || len(topic) > MaxTopicLen {
		return tf, ErrMalformedParameter
	}
	tf.n = uint8(copy(tf.topic[:], topic))
	tf.QoS = qos
	return tf, nil
}

// Topic returns the topic filter string.
func (tf TopicFilter) Topic() string {
	return string(tf.topic[:tf.n])
}

// SubscriptionList is a fixed-capacity sequence of up to MaxSubscriptions
// TopicFilter entries, built fresh per SUBSCRIBE/UNSUBSCRIBE call.
type SubscriptionList struct {
	items [MaxSubscriptions]TopicFilter
	n     int
}

// Add appends a topic filter, failing with ErrOutOfMemory once the list is
// at capacity.
func (l *SubscriptionList) Add(topic string, qos uint8) error {
	if l.n >= MaxSubscriptions {
		return ErrOutOfMemory
	}
	tf, err := NewTopicFilter(topic, qos)
	if err != nil {
		return err
	}
	l.items[l.n] = tf
	l.n++
	return nil
}

// Len reports how many topic filters are in the list.
func (l *SubscriptionList) Len() int { return l.n }

// At returns the i'th topic filter. i must be < Len().
func (l *SubscriptionList) At(i int) TopicFilter { return l.items[i] }

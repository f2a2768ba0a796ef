package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.EqualError(t, err, "kafka brokers not configured")
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, splitBrokers(" kafka-1:9092,,kafka-2:9092 "))
	assert.Empty(t, splitBrokers(" , "))
}

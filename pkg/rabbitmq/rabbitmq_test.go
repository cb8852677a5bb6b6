package rabbitmq_test

import (
	"testing"

	"fashionhub/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestLogOrderEvent(t *testing.T) {
	err := rabbitmq.LogOrderEvent(amqp.Delivery{
		RoutingKey: "order.created",
		Body:       []byte(`{"orderId":"o-1","orderNumber":"ORD-1700000000000-042"}`),
	})
	assert.NoError(t, err)

	err = rabbitmq.LogOrderEvent(amqp.Delivery{RoutingKey: "order.created", Body: []byte("not json")})
	assert.Error(t, err)
}

func TestPublishWithoutConnection(t *testing.T) {
	client := &rabbitmq.Client{}
	assert.False(t, client.Connected())
	assert.ErrorIs(t, client.Publish("order.created", map[string]string{"orderId": "o-1"}), rabbitmq.ErrNotConnected)
	assert.Error(t, client.ConsumeOrderEvents(rabbitmq.LogOrderEvent))
	assert.NoError(t, client.Close())
}

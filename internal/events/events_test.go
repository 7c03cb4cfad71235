package events

import (
	"context"
	"errors"
	"testing"

	"storesync/internal/logger"
	"storesync/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishKeysByProduct(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, logger: logger.NewNop()}

	e := NewProductEvent(models.SyncActionUpdate, &models.Product{ID: "7", Name: "Camiseta"})
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "7", string(w.messages[0].Key))

	decoded, err := Decode(w.messages[0])
	require.NoError(t, err)
	assert.Equal(t, TypeProductUpdated, decoded.Type)
	assert.Equal(t, e.ID, decoded.ID)
	assert.Nil(t, decoded.Data)
}

func TestPublishError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("no brokers")}, logger: logger.NewNop()}

	err := p.Publish(context.Background(), NewProductEvent(models.SyncActionCreate, &models.Product{ID: "7"}))
	assert.ErrorContains(t, err, "no brokers")
}

func TestDeleteEventCarriesName(t *testing.T) {
	msg, err := Encode(NewProductEvent(models.SyncActionDelete, &models.Product{ID: "7", Name: "Camiseta"}))
	require.NoError(t, err)

	e, err := Decode(msg)
	require.NoError(t, err)

	action, ok := e.Action()
	require.True(t, ok)
	assert.Equal(t, models.SyncActionDelete, action)
	assert.Equal(t, &models.Product{ID: "7", Name: "Camiseta"}, e.DeletedProduct())
}

func TestEventAction(t *testing.T) {
	action, ok := Event{Type: TypeProductCreated}.Action()
	assert.True(t, ok)
	assert.Equal(t, models.SyncActionCreate, action)

	_, ok = Event{Type: "export.required"}.Action()
	assert.False(t, ok)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

package queue

import (
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunzhengang/github-topics-trending/internal/models"
)

func TestEncodeDecode(t *testing.T) {
	fetchedAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	batch := Batch{
		ID:        "b-1",
		Topic:     "llm",
		Query:     "topic:llm",
		Sort:      "stars",
		FetchedAt: fetchedAt,
		Complete:  true,
		Reason:    "last_page",
		Count:     1,
		Repositories: []models.Repository{
			{Rank: 1, RepoName: "octo/hello", Owner: "octo", Name: "hello", Stars: 10, Topics: []string{"llm"}},
		},
	}

	msg, err := encode(batch)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "b-1", msg.MessageId)
	assert.Equal(t, fetchedAt, msg.Timestamp)
	assert.Equal(t, batchType, msg.Type)

	got, err := decode(amqp.Delivery{Type: msg.Type, Body: msg.Body})
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := decode(amqp.Delivery{Type: "github_sync", Body: []byte(`{}`)})
	assert.Error(t, err)

	_, err = decode(amqp.Delivery{Body: []byte(`not json`)})
	assert.Error(t, err)
}

package workers_test

import (
	"testing"
	"time"

	"github.com/anecdotario/photo-services/testutil"
	"github.com/anecdotario/photo-services/workers"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSweeper() *workers.RetentionSweeper {
	ctx, _, _ := testutil.NewTestContext()
	return &workers.RetentionSweeper{
		Context: ctx,
		Settings: &workers.Settings{
			ChannelBufferSize: 2,
			NSQChannel:        "photo_retention_worker_chan",
			NSQTopic:          "photo_retention",
			NumberOfWorkers:   1,
			RequeueTimeout:    time.Minute,
		},
		ProcessChannel: make(chan *workers.RetentionTask, 2),
	}
}

func message(body string) *nsq.Message {
	return nsq.NewMessage(nsq.MessageID{}, []byte(body))
}

func TestHandleMessage(t *testing.T) {
	sweeper := testSweeper()
	err := sweeper.HandleMessage(message(
		`{"entity_type":"user","entity_id":"alice","photo_type":"profile","keep":2}`))
	require.Nil(t, err)

	require.Equal(t, 1, len(sweeper.ProcessChannel))
	task := <-sweeper.ProcessChannel
	assert.Equal(t, "user", task.EntityType)
	assert.Equal(t, "alice", task.EntityID)
	assert.Equal(t, "profile", task.PhotoType)
	assert.Equal(t, 2, task.Keep)
	assert.Equal(t, "user/alice/profile", task.Identifier())
	assert.NotNil(t, task.NSQMessage)
}

func TestHandleMessageDropsMalformedTasks(t *testing.T) {
	sweeper := testSweeper()

	// Malformed bodies are dropped, not requeued; a requeue can
	// never fix them.
	for _, body := range []string{
		"not json at all",
		`{"entity_type":"user"}`,
		`{"entity_id":"alice"}`,
		"",
	} {
		err := sweeper.HandleMessage(message(body))
		assert.Nil(t, err, body)
	}
	assert.Equal(t, 0, len(sweeper.ProcessChannel))
}

func TestSettingsToJSON(t *testing.T) {
	sweeper := testSweeper()
	jsonStr := sweeper.Settings.ToJSON()
	assert.Contains(t, jsonStr, `"NSQTopic":"photo_retention"`)
	assert.Contains(t, jsonStr, `"NumberOfWorkers":1`)
}

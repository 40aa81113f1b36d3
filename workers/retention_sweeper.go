package workers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anecdotario/photo-services/constants"
	"github.com/anecdotario/photo-services/models/common"
	"github.com/anecdotario/photo-services/pipeline"
	"github.com/nsqio/go-nsq"
)

// RetentionTask is the body of one message on the photo_retention
// topic: run retention cleanup for one (entity_type, entity_id,
// photo_type) tuple. Keep overrides the configured retention count
// when > 0.
type RetentionTask struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	PhotoType  string `json:"photo_type"`
	Keep       int    `json:"keep,omitempty"`

	// NSQMessage is the message this task arrived in. The processor
	// finishes or requeues it when the cleanup pass completes.
	NSQMessage *nsq.Message `json:"-"`
}

// Identifier names the task's tuple for logging.
func (t *RetentionTask) Identifier() string {
	return fmt.Sprintf("%s/%s/%s", t.EntityType, t.EntityID, t.PhotoType)
}

// Settings controls the sweeper's NSQ consumer and its worker pool.
type Settings struct {
	ChannelBufferSize int
	NSQChannel        string
	NSQTopic          string
	NumberOfWorkers   int
	RequeueTimeout    time.Duration
}

func (s *Settings) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

// RetentionSweeper consumes retention tasks from NSQ and runs
// cleanup for each. Upload already cleans up inline; the sweeper
// handles tasks queued by admin tooling and retries for tuples whose
// inline cleanup reported errors.
type RetentionSweeper struct {
	Context        *common.Context
	Settings       *Settings
	ProcessChannel chan *RetentionTask
	NSQConsumer    *nsq.Consumer
}

// NewRetentionSweeper starts a sweeper: it spins up the worker pool
// and registers as an NSQ consumer, so it begins handling messages
// immediately. Panics if it cannot connect, because a sweeper that
// can't consume has nothing else to do.
func NewRetentionSweeper(bufSize, numWorkers int, requeueTimeout time.Duration) *RetentionSweeper {
	settings := &Settings{
		ChannelBufferSize: bufSize,
		NSQChannel:        constants.TopicRetention + "_worker_chan",
		NSQTopic:          constants.TopicRetention,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    requeueTimeout,
	}
	sweeper := &RetentionSweeper{
		Context:        common.NewContext(),
		Settings:       settings,
		ProcessChannel: make(chan *RetentionTask, settings.ChannelBufferSize),
	}

	sweeper.Context.Logger.Info("Retention sweeper started with the following settings:")
	sweeper.Context.Logger.Info(settings.ToJSON())

	for i := 0; i < settings.NumberOfWorkers; i++ {
		sweeper.Context.Logger.Infof("Starting worker #%d", i+1)
		go sweeper.processTasks()
	}

	err := sweeper.registerAsNsqConsumer()
	if err != nil {
		panic(fmt.Sprintf("Cannot register NSQ consumer: %v", err))
	}
	return sweeper
}

func (s *RetentionSweeper) registerAsNsqConsumer() error {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", s.Settings.ChannelBufferSize)
	consumer, err := nsq.NewConsumer(s.Settings.NSQTopic, s.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	s.NSQConsumer = consumer
	s.NSQConsumer.AddHandler(s)
	err = s.NSQConsumer.ConnectToNSQLookupd(s.Context.Config.NsqLookupd)
	if err != nil {
		return err
	}
	s.Context.Logger.Info("Registered as NSQ consumer")
	return nil
}

// HandleMessage parses and validates one retention task. A malformed
// body is dropped permanently; requeueing can never fix it. Valid
// tasks go to the ProcessChannel with autoresponse disabled, and the
// processor answers NSQ when the pass completes.
func (s *RetentionSweeper) HandleMessage(message *nsq.Message) error {
	task, err := s.parseTask(message)
	if err != nil {
		s.Context.Logger.Errorf("Dropping malformed retention task: %v", err)
		return nil
	}
	message.DisableAutoResponse()
	task.NSQMessage = message
	s.ProcessChannel <- task
	return nil
}

func (s *RetentionSweeper) parseTask(message *nsq.Message) (*RetentionTask, error) {
	body := strings.TrimSpace(string(message.Body))
	s.Context.Logger.Info("NSQ message body: ", body)
	task := &RetentionTask{}
	err := json.Unmarshal([]byte(body), task)
	if err != nil {
		return nil, fmt.Errorf("could not parse message body %q: %v", body, err)
	}
	if task.EntityType == "" || task.EntityID == "" {
		return nil, fmt.Errorf("task is missing entity_type or entity_id: %q", body)
	}
	return task, nil
}

func (s *RetentionSweeper) processTasks() {
	for task := range s.ProcessChannel {
		s.runCleanup(task)
	}
}

// runCleanup runs one retention pass. If the metadata store could not
// be queried at all, the message is requeued so the pass runs again
// once the store is back. Per-record failures are logged and finished;
// the next pass for the tuple will retry them.
func (s *RetentionSweeper) runCleanup(task *RetentionTask) {
	cleanup := pipeline.NewRetentionCleanup(s.Context, task.EntityType, task.EntityID, task.PhotoType)
	cleanup.Keep = task.Keep
	report := cleanup.Run()

	queryFailed := false
	for _, procErr := range report.Errors {
		s.Context.Logger.Errorf("Retention task %s: %s", task.Identifier(), procErr.Error())
		if procErr.Operation == "record_query" {
			queryFailed = true
		}
	}
	if queryFailed {
		s.Context.Logger.Warningf("Requeueing retention task %s in %s",
			task.Identifier(), s.Settings.RequeueTimeout)
		task.NSQMessage.Requeue(s.Settings.RequeueTimeout)
		return
	}
	s.Context.Logger.Infof("Retention task %s: found %d, kept %d, removed %d, errors %d",
		task.Identifier(), report.Found, len(report.Kept), len(report.Removed), len(report.Errors))
	task.NSQMessage.Finish()
}

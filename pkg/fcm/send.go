package fcm

import (
	"context"
	"strconv"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"github.com/yusufsyaifudin/fcmv1/pkg/tracer"
	"github.com/yusufsyaifudin/fcmv1/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Send sends one message.
// The error is only returned when the message is invalid or no access token could be obtained,
// a message rejected by FCM is reported in FCMResponse.Err.
func (c *Client) Send(ctx context.Context, msg *Message) (*FCMResponse, error) {
	return c.send(ctx, msg, false)
}

// SendDryRun validates the message with FCM without delivering it.
func (c *Client) SendDryRun(ctx context.Context, msg *Message) (*FCMResponse, error) {
	return c.send(ctx, msg, true)
}

func (c *Client) send(ctx context.Context, msg *Message, dryRun bool) (resp *FCMResponse, err error) {
	ctx, span := tracer.StartSpan(ctx, "fcm.Send", trace.WithAttributes(attribute.Bool("fcm.dry_run", dryRun)))
	defer func() {
		tracer.RecordError(span, err)
		if resp != nil && resp.Err != nil {
			tracer.RecordError(span, resp.Err)
		}

		span.End()
	}()

	body, err := EncodeMessage(msg, dryRun)
	if err != nil {
		return nil, err
	}

	accessToken, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	return c.sendEncoded(ctx, accessToken, body), nil
}

func (c *Client) sendEncoded(ctx context.Context, accessToken string, body map[string]interface{}) *FCMResponse {
	raw, err := c.post(ctx, c.sendURL(), accessToken, body, false)
	if err != nil {
		return &FCMResponse{Err: err}
	}

	return handleSendResponse(ctx, c.log, raw)
}

// SendEach sends every message with its own request, all of them concurrently.
// The responses keep the order of msgs, and an invalid message only fails its own slot.
// The error is returned for failures affecting the whole batch: no messages,
// more than MaxBatchMessages, or no access token.
func (c *Client) SendEach(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error) {
	return c.sendEach(ctx, msgs, false)
}

func (c *Client) SendEachDryRun(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error) {
	return c.sendEach(ctx, msgs, true)
}

// SendEachForMulticast sends the multicast message to each of its tokens, see SendEach.
func (c *Client) SendEachForMulticast(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error) {
	return c.sendEachForMulticast(ctx, msg, false)
}

func (c *Client) SendEachForMulticastDryRun(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error) {
	return c.sendEachForMulticast(ctx, msg, true)
}

func (c *Client) sendEachForMulticast(ctx context.Context, msg *MulticastMessage, dryRun bool) (*FCMBatchResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return c.sendEach(ctx, msg.ToMessages(), dryRun)
}

func (c *Client) sendEach(ctx context.Context, msgs []*Message, dryRun bool) (batch *FCMBatchResponse, err error) {
	ctx, span := tracer.StartSpan(ctx, "fcm.SendEach", trace.WithAttributes(
		attribute.Int("fcm.batch_size", len(msgs)),
		attribute.Bool("fcm.dry_run", dryRun),
	))
	defer func() {
		tracer.RecordError(span, err)
		span.End()
	}()

	if len(msgs) == 0 {
		return nil, fcmerr.InvalidArgument("messages must not be empty")
	}

	if len(msgs) > MaxBatchMessages {
		return nil, fcmerr.InvalidArgument("can not send more than %d messages in a single batch, got %d", MaxBatchMessages, len(msgs))
	}

	ctx = c.withBatchID(ctx)

	accessToken, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]*sendJob, len(msgs))
	workerJobs := make([]worker.Job, len(msgs))
	for i, msg := range msgs {
		jobs[i] = &sendJob{
			id:          uint64(i),
			ctx:         ctx,
			client:      c,
			msg:         msg,
			dryRun:      dryRun,
			accessToken: accessToken,
		}

		workerJobs[i] = jobs[i]
	}

	// failures are kept in each job response
	_ = worker.Run(workerJobs, c.log)

	batch = &FCMBatchResponse{Responses: make([]*FCMResponse, len(jobs))}
	for i, job := range jobs {
		batch.Responses[i] = job.resp
	}

	span.SetAttributes(
		attribute.Int("fcm.success_count", batch.SuccessCount()),
		attribute.Int("fcm.failure_count", batch.FailureCount()),
	)

	c.log.Info(ctx, "batch sent",
		logger.KV("success_count", batch.SuccessCount()),
		logger.KV("failure_count", batch.FailureCount()),
	)

	return batch, nil
}

// withBatchID tags every log line of one SendEach call with the same id.
func (c *Client) withBatchID(ctx context.Context) context.Context {
	id, err := c.batchIDs.NextID()
	if err != nil {
		c.log.Warn(ctx, "cannot generate batch id", logger.KV("error", err))
		return ctx
	}

	logTracer := logger.MustExtract(ctx)
	logTracer.BatchID = strconv.FormatUint(id, 10)
	return logger.Inject(ctx, logTracer)
}

// sendJob sends one message of a batch.
type sendJob struct {
	id          uint64
	ctx         context.Context
	client      *Client
	msg         *Message
	dryRun      bool
	accessToken string

	body map[string]interface{}
	resp *FCMResponse
}

var _ worker.Job = (*sendJob)(nil)

func (j *sendJob) ID() uint64 {
	return j.id
}

func (j *sendJob) Context() context.Context {
	return j.ctx
}

func (j *sendJob) PreExecute() (err error) {
	j.body, err = EncodeMessage(j.msg, j.dryRun)
	return
}

func (j *sendJob) Execute() error {
	j.resp = j.client.sendEncoded(j.ctx, j.accessToken, j.body)
	if j.resp.Err != nil {
		return j.resp.Err
	}

	return nil
}

func (j *sendJob) PostExecute(err error) {
	if j.resp != nil || err == nil {
		return
	}

	if e, ok := fcmerr.As(err); ok {
		j.resp = &FCMResponse{Err: e}
		return
	}

	j.resp = &FCMResponse{Err: fcmerr.Wrap(fcmerr.CodeUnknown, err, "%s", err.Error())}
}

package award

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"community-points/pkg/task"
	"community-points/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const TaskActivity = taskname.PointsActivity

type ActivityPayload struct {
	Activity
	TraceID      string                 `json:"trace_id,omitempty"`
	TraceContext propagation.MapCarrier `json:"trace_context,omitempty"`
}

var taskPropagator = propagation.TraceContext{}

// NewActivityTask never retries: a replayed activity after a partial failure
// could award twice, and a missed award is the cheaper mistake.
func NewActivityTask(ctx context.Context, a Activity) (*asynq.Task, error) {
	p := ActivityPayload{Activity: a}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		p.TraceID = sc.TraceID().String()
		p.TraceContext = propagation.MapCarrier{}
		taskPropagator.Inject(ctx, p.TraceContext)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}

	return asynq.NewTask(TaskActivity, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Second),
		asynq.Queue(task.QueueDefault),
	), nil
}

type Task struct {
	engine *Engine
	tracer trace.Tracer
}

func NewTask(engine *Engine, tp trace.TracerProvider) *Task {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Task{engine: engine, tracer: tp.Tracer("community-points/award")}
}

// HandleActivityTask continues the trace of the request that queued the
// activity, so worker logs share its trace id.
func (t *Task) HandleActivityTask(ctx context.Context, at *asynq.Task) error {
	var payload ActivityPayload
	if err := json.Unmarshal(at.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if len(payload.TraceContext) > 0 {
		ctx = taskPropagator.Extract(ctx, payload.TraceContext)
	}
	ctx, span := t.tracer.Start(ctx, TaskActivity,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("points.kind", string(payload.Kind)),
			attribute.Int64("points.community_id", payload.CommunityID),
		),
	)
	defer span.End()

	sc := span.SpanContext()
	log := zap.L().With(
		zap.String("task_type", at.Type()),
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)

	res, err := t.engine.HandleActivity(ctx, payload.Activity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("activity dropped", zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	span.SetAttributes(attribute.String("points.outcome", string(res.Outcome)))
	log.Debug("activity processed", zap.String("outcome", string(res.Outcome)))
	return nil
}

func registerTaskHandlers(mux *asynq.ServeMux, t *Task) {
	mux.HandleFunc(TaskActivity, t.HandleActivityTask)
}

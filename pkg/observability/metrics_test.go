package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/formwork/pkg/domain"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(&domain.CyclicDependencyError{QuestionIDs: []string{"a"}})
	m.ObserveValidation(true)
	m.ObserveValidation(false)
	m.ObserveValidation(false)
	m.ObserveMutation("add_question", domain.ErrDuplicateQuestionID)
	m.ObserveStore("get", 5*time.Millisecond, domain.ErrTemplateNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("CYCLIC_DEPENDENCY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_question", "DUPLICATE_QUESTION_ID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("get", "TEMPLATE_NOT_FOUND")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreOperationSeconds))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation(errors.New("x"))
		m.ObserveValidation(true)
		m.ObserveMutation("op", nil)
		m.ObserveStore("get", time.Second, nil)
	})
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	err := p.Publish(context.Background(), domain.Event{
		Type:       domain.EventVersionActivated,
		TemplateID: "tpl-2",
		LineageID:  "lin-1",
		Version:    2,
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "type=version.activated")
	assert.Contains(t, buf.String(), "template_id=tpl-2")
}

type publishFunc func(ctx context.Context, event domain.Event) error

func (f publishFunc) Publish(ctx context.Context, event domain.Event) error { return f(ctx, event) }

func TestFanout(t *testing.T) {
	var got []string
	record := func(name string, err error) publishFunc {
		return func(ctx context.Context, event domain.Event) error {
			got = append(got, name+":"+string(event.Type))
			return err
		}
	}
	boom := errors.New("boom")

	f := Fanout{record("a", nil), record("b", boom), record("c", nil)}
	err := f.Publish(context.Background(), domain.Event{Type: domain.EventTemplateCreated})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:template.created", "b:template.created", "c:template.created"}, got)
	assert.NoError(t, Fanout(nil).Publish(context.Background(), domain.Event{}))
}

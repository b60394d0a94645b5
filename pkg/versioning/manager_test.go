package versioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/questions"
)

func newManager(t *testing.T) (*Manager, *memory.Store, *memory.Recorder) {
	t.Helper()
	store := memory.NewStore()
	rec := memory.NewRecorder()
	var (
		mu sync.Mutex
		n  int
	)
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return NewManager(store, WithPublisher(rec), WithIDGenerator(ids)), store, rec
}

func intake() *domain.FormTemplate {
	return &domain.FormTemplate{
		Name:     "Intake",
		TypeID:   "intake",
		TenantID: "clinic-1",
		Questions: []domain.Question{
			{ID: "smoker", Type: domain.QuestionYesNo, Text: "Do you smoke?", Required: true},
			{ID: "packs", Type: domain.QuestionNumeric, Text: "Packs per day",
				ConditionalLogic: []domain.ConditionalRule{
					{QuestionID: "smoker", Operator: domain.OpEquals, Value: "yes", Action: domain.ActionShow},
				}},
		},
	}
}

func addNotes(tpl *domain.FormTemplate) (*domain.FormTemplate, error) {
	return questions.Add(tpl, domain.Question{ID: "notes", Type: domain.QuestionText, Text: "Notes"}, nil)
}

func TestCreate(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()

	tpl, err := m.Create(ctx, intake())
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Version)
	assert.NotEmpty(t, tpl.ID)
	assert.NotEmpty(t, tpl.LineageID)
	assert.False(t, tpl.IsActive)
	assert.Equal(t, 1, tpl.Questions[1].Order)
	assert.Equal(t, []domain.EventType{domain.EventTemplateCreated}, rec.Types())

	_, err = m.Create(ctx, &domain.FormTemplate{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	bad := intake()
	bad.Questions[0].ConditionalLogic = []domain.ConditionalRule{
		{QuestionID: "packs", Operator: domain.OpGreaterThan, Value: 1, Action: domain.ActionShow},
	}
	_, err = m.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrCyclicDependency)
}

func TestEdit_DraftInPlace(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()
	tpl, err := m.Create(ctx, intake())
	require.NoError(t, err)

	edited, err := m.Edit(ctx, tpl.ID, "add notes", addNotes)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, edited.ID)
	assert.Equal(t, 1, edited.Version)
	assert.Len(t, edited.Questions, 3)

	history, err := m.LineageHistory(ctx, tpl.LineageID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, domain.EventTemplateUpdated, rec.Types()[len(rec.Types())-1])
}

func TestEdit_PublishedForks(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.Activate(ctx, v1.ID)
	require.NoError(t, err)

	v2, err := m.Edit(ctx, v1.ID, "add notes", addNotes)
	require.NoError(t, err)
	assert.NotEqual(t, v1.ID, v2.ID)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.ID, v2.CreatedFrom)
	assert.False(t, v2.IsActive)
	assert.Len(t, v2.Questions, 3)

	// The published version is untouched and still active.
	stored, err := m.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 2)
	assert.True(t, stored.IsActive)

	assert.Contains(t, rec.Types(), domain.EventVersionCreated)
}

func TestEdit_SupersededDraftForks(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.CreateVersion(ctx, v1.ID, "next")
	require.NoError(t, err)

	v3, err := m.Edit(ctx, v1.ID, "add notes", addNotes)
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)
	assert.Equal(t, v1.ID, v3.CreatedFrom)
}

func TestEdit_FailureWritesNothing(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.Activate(ctx, v1.ID)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = m.Edit(ctx, v1.ID, "fail", func(*domain.FormTemplate) (*domain.FormTemplate, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	history, err := m.LineageHistory(ctx, v1.LineageID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "a failed edit must not leave a fork behind")
}

func TestCreateVersion(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)

	v2, err := m.CreateVersion(ctx, v1.ID, "quarterly review")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.LineageID, v2.LineageID)
	assert.Equal(t, "quarterly review", v2.VersionNotes)
	assert.Equal(t, v1.Questions, v2.Questions)

	// Versioning from an old version still takes max+1.
	v3, err := m.CreateVersion(ctx, v1.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)

	_, err = m.CreateVersion(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestCreateVersion_Concurrent(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateVersion(ctx, v1.ID, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	history, err := m.LineageHistory(ctx, v1.LineageID)
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	for i, v := range history {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestActivate(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	v2, err := m.CreateVersion(ctx, v1.ID, "")
	require.NoError(t, err)

	active, err := m.Activate(ctx, v1.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)
	require.NotNil(t, active.ActivatedAt)

	active, err = m.Activate(ctx, v2.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)

	old, err := m.Get(ctx, v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.True(t, old.Published(), "a once-active version stays immutable")

	count := len(rec.Events())
	_, err = m.Activate(ctx, v2.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Events(), count, "re-activating is a no-op")
}

func TestDeactivate(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.Activate(ctx, v1.ID)
	require.NoError(t, err)

	off, err := m.Deactivate(ctx, v1.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, domain.EventVersionDeactivated, rec.Types()[len(rec.Types())-1])

	require.NoError(t, m.DeactivateLineage(ctx, v1.LineageID))
	assert.Equal(t, domain.EventLineageDeactivated, rec.Types()[len(rec.Types())-1])

	assert.ErrorIs(t, m.DeactivateLineage(ctx, "missing"), domain.ErrTemplateNotFound)
}

func TestHistory(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.CreateVersion(ctx, v1.ID, "")
	require.NoError(t, err)

	other := intake()
	other.TenantID = "clinic-2"
	_, err = m.Create(ctx, other)
	require.NoError(t, err)

	history, err := m.History(ctx, "Intake", "intake", "clinic-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 2, history[1].Version)

	_, err = m.History(ctx, "Discharge", "intake", "clinic-1")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestCompareByID(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	v1, err := m.Create(ctx, intake())
	require.NoError(t, err)
	_, err = m.Activate(ctx, v1.ID)
	require.NoError(t, err)
	v2, err := m.Edit(ctx, v1.ID, "add notes", addNotes)
	require.NoError(t, err)

	diff, err := m.CompareByID(ctx, v1.ID, v2.ID)
	require.NoError(t, err)
	require.Len(t, diff.Questions.Added, 1)
	assert.Equal(t, "notes", diff.Questions.Added[0].ID)
	assert.Equal(t, 1, diff.FromVersion)
	assert.Equal(t, 2, diff.ToVersion)

	_, err = m.CompareByID(ctx, v1.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(memory.NewStore(), WithClock(func() time.Time { return fixed }))
	tpl, err := m.Create(context.Background(), intake())
	require.NoError(t, err)
	assert.Equal(t, fixed, tpl.CreatedAt)
	assert.Equal(t, fixed, tpl.EffectiveDate)
}

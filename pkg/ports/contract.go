package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
)

// ContractTemplate builds a template suitable for the contract suite.
func ContractTemplate(lineageID string, version int) *domain.FormTemplate {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.FormTemplate{
		ID:            uuid.NewString(),
		LineageID:     lineageID,
		TenantID:      "tenant-a",
		TypeID:        "intake",
		Name:          "Contract " + lineageID,
		Version:       version,
		Description:   "contract fixture",
		EffectiveDate: now,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionYesNo, Text: "Do you smoke?", Required: true, Order: 0},
			{ID: "q2", Type: domain.QuestionNumeric, Text: "How many?", Order: 1,
				Validation: []domain.ValidationRule{{Type: domain.RuleMin, Value: 1.0}},
				ConditionalLogic: []domain.ConditionalRule{
					{QuestionID: "q1", Operator: domain.OpEquals, Value: "yes", Action: domain.ActionShow},
				}},
		},
		BusinessRules: []domain.BusinessRule{{ID: "br1", Event: "submitted", Action: "notify"}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RunTemplateStoreContract runs a suite of tests to verify that a TemplateStore
// implementation adheres to the defined interface contract.
func RunTemplateStoreContract(t *testing.T, store TemplateStore) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		tpl := ContractTemplate(uuid.NewString(), 1)
		require.NoError(t, store.Create(ctx, tpl))

		loaded, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, tpl.ID, loaded.ID)
		assert.Equal(t, tpl.LineageID, loaded.LineageID)
		assert.Equal(t, tpl.Name, loaded.Name)
		assert.Equal(t, 1, loaded.Version)
		assert.True(t, tpl.EffectiveDate.Equal(loaded.EffectiveDate))
		require.Len(t, loaded.Questions, 2)
		assert.Equal(t, tpl.Questions[1].ConditionalLogic, loaded.Questions[1].ConditionalLogic)
		assert.Equal(t, tpl.Questions[1].Validation, loaded.Questions[1].Validation)
		assert.Equal(t, tpl.BusinessRules, loaded.BusinessRules)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("Returned Copies Are Isolated", func(t *testing.T) {
		tpl := ContractTemplate(uuid.NewString(), 1)
		require.NoError(t, store.Create(ctx, tpl))
		tpl.Name = "mutated after create"

		loaded, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)
		loaded.Questions[0].Text = "mutated after get"

		again, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated after create", again.Name)
		assert.Equal(t, "Do you smoke?", again.Questions[0].Text)
	})

	t.Run("Create Conflicts", func(t *testing.T) {
		lineage := uuid.NewString()
		tpl := ContractTemplate(lineage, 1)
		require.NoError(t, store.Create(ctx, tpl))

		assert.ErrorIs(t, store.Create(ctx, tpl), domain.ErrTemplateExists)

		sameVersion := ContractTemplate(lineage, 1)
		assert.ErrorIs(t, store.Create(ctx, sameVersion), domain.ErrVersionConflict)
	})

	t.Run("Concurrent Version Creation", func(t *testing.T) {
		lineage := uuid.NewString()
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := store.Create(ctx, ContractTemplate(lineage, 1)); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, succeeded, "exactly one writer may claim a version")

		versions, err := store.ListLineage(ctx, lineage)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("Update Checks Revision", func(t *testing.T) {
		tpl := ContractTemplate(uuid.NewString(), 1)
		require.NoError(t, store.Create(ctx, tpl))

		first, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)
		stale, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)

		first.Description = "edited"
		before := first.Revision
		require.NoError(t, store.Update(ctx, first))
		assert.Equal(t, before+1, first.Revision)

		stale.Description = "lost update"
		assert.ErrorIs(t, store.Update(ctx, stale), domain.ErrRevisionConflict)

		loaded, err := store.Get(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", loaded.Description)
		assert.Equal(t, first.Revision, loaded.Revision)

		missing := ContractTemplate(uuid.NewString(), 1)
		assert.ErrorIs(t, store.Update(ctx, missing), domain.ErrTemplateNotFound)
	})

	t.Run("List Lineage", func(t *testing.T) {
		lineage := uuid.NewString()
		for _, v := range []int{2, 1, 3} {
			require.NoError(t, store.Create(ctx, ContractTemplate(lineage, v)))
		}

		versions, err := store.ListLineage(ctx, lineage)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		for i, v := range versions {
			assert.Equal(t, i+1, v.Version)
		}

		none, err := store.ListLineage(ctx, "missing-"+uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("List By Name", func(t *testing.T) {
		lineage := uuid.NewString()
		v1 := ContractTemplate(lineage, 1)
		v2 := ContractTemplate(lineage, 2)
		other := ContractTemplate(uuid.NewString(), 1)
		other.TenantID = "tenant-b"
		other.Name = v1.Name
		require.NoError(t, store.Create(ctx, v2))
		require.NoError(t, store.Create(ctx, v1))
		require.NoError(t, store.Create(ctx, other))

		found, err := store.List(ctx, Filter{TenantID: "tenant-a", TypeID: "intake", Name: v1.Name})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, 1, found[0].Version)
		assert.Equal(t, 2, found[1].Version)

		found, err = store.List(ctx, Filter{Name: v1.Name})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("Set Active", func(t *testing.T) {
		lineage := uuid.NewString()
		v1 := ContractTemplate(lineage, 1)
		v2 := ContractTemplate(lineage, 2)
		require.NoError(t, store.Create(ctx, v1))
		require.NoError(t, store.Create(ctx, v2))

		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, store.SetActive(ctx, lineage, v1.ID, at))
		require.NoError(t, store.SetActive(ctx, lineage, v2.ID, at.Add(time.Minute)))

		versions, err := store.ListLineage(ctx, lineage)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.False(t, versions[0].IsActive)
		assert.True(t, versions[1].IsActive)
		require.NotNil(t, versions[0].ActivatedAt, "published history keeps its activation stamp")
		assert.True(t, at.Equal(*versions[0].ActivatedAt))

		active, err := store.List(ctx, Filter{Name: v1.Name, ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, v2.ID, active[0].ID)

		assert.ErrorIs(t, store.SetActive(ctx, lineage, "missing-"+uuid.NewString(), at), domain.ErrTemplateNotFound)

		require.NoError(t, store.SetActive(ctx, lineage, "", at))
		versions, err = store.ListLineage(ctx, lineage)
		require.NoError(t, err)
		for _, v := range versions {
			assert.False(t, v.IsActive)
		}
	})
}

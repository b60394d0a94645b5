package formwork_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/dsl"
)

func TestEngine_Catalog(t *testing.T) {
	ctx := context.Background()
	eng := formwork.New(formwork.WithCatalog(
		[]domain.FormCategory{{ID: "clinical", Name: "Clinical", IsActive: true}},
		[]domain.FormType{
			{ID: "intake", CategoryID: "clinical", Name: "Intake", IsActive: true},
			{ID: "legacy", CategoryID: "clinical", Name: "Legacy", IsActive: false},
			{ID: "billing", CategoryID: "admin", Name: "Billing", IsActive: true},
		},
	))

	assert.Len(t, eng.Categories(), 1)
	assert.Len(t, eng.Types(""), 3)
	assert.Len(t, eng.Types("clinical"), 2)

	_, err := eng.CreateTemplate(ctx, dsl.New("Intake").Type("intake").MustBuild())
	require.NoError(t, err)

	_, err = eng.CreateTemplate(ctx, dsl.New("Old").Type("legacy").MustBuild())
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = eng.CreateTemplate(ctx, dsl.New("Unknown").Type("nope").MustBuild())
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}

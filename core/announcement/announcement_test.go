package announcement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/storage/database/inmem"
)

func setup(t *testing.T) *Service {
	v := core.NewValidator()
	RegisterValidators(v)
	svc := NewService(inmem.Open(), v)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_CRUD(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	old, err := svc.Create(ctx, Input{Title: "Clean-up drive", Category: "Community", Type: "Info", Content: "Bring gloves", Date: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, TypeInfo, old.Type)

	latest, err := svc.Create(ctx, Input{Title: "Typhoon warning", Category: "Safety", Type: TypeWarning, Content: "Stay indoors"})
	require.NoError(t, err)
	assert.Equal(t, svc.now(), latest.Date)

	anns, err := svc.Query(ctx)
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, latest.ID, anns[0].ID, "newest first")

	upd, err := svc.Update(ctx, old.ID.Hex(), Input{Title: "Clean-up drive (moved)", Category: "Community", Type: TypeImportant, Content: "Saturday"})
	require.NoError(t, err)
	assert.Equal(t, old.Date, upd.Date, "the date is kept when not given")

	got, err := svc.Get(ctx, old.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Clean-up drive (moved)", got.Title)

	require.NoError(t, svc.Delete(ctx, old.ID.Hex()))
	_, err = svc.Get(ctx, old.ID.Hex())
	assert.Equal(t, core.ErrNotFound, err)
	_, err = svc.Get(ctx, "not-an-id")
	assert.Equal(t, core.ErrNotFound, err)
}

func TestInput_Validate(t *testing.T) {
	v := core.NewValidator()
	RegisterValidators(v)

	tests := []struct {
		name      string
		in        Input
		wantRules map[string]string
	}{
		{name: "valid", in: Input{Title: "t", Category: "c", Type: "important", Content: "x"}},
		{name: "unknown type", in: Input{Title: "t", Category: "c", Type: "urgent", Content: "x"}, wantRules: map[string]string{"type": typeTag}},
		{name: "bad date", in: Input{Title: "t", Category: "c", Type: "info", Content: "x", Date: "yesterday"}, wantRules: map[string]string{"date": "date"}},
		{name: "blank", in: Input{Title: "  ", Type: "info"}, wantRules: map[string]string{"title": "required", "category": "required", "content": "required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.in.Validate(v)
			if tt.wantRules == nil {
				assert.True(t, res.Valid, "%v", res.Violations)
				return
			}
			got := make(map[string]string, len(res.Violations))
			for _, vl := range res.Violations {
				got[vl.Field] = vl.Rule
			}
			assert.False(t, res.Valid)
			assert.Equal(t, tt.wantRules, got)
		})
	}
}

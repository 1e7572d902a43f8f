package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// testContract exercises behaviour every Store backend must share.
func testContract(t *testing.T, st Store) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := record("a", "VS-1", base)
	b := record("b", "VS-2", base.Add(time.Minute))
	c := record("c", "VS-1", base.Add(2*time.Minute))
	c.Output.Deaerator = &types.Extraction{Flow: 0.92, Temperature: 503.6, Enthalpy: 3487.03, Pressure: 10}
	c.Diagnostics = []types.SectionDiagnostics{{Section: 1, Fluid: "steam", Iterations: 20}}

	require.NoError(t, st.Put(ctx, a))
	require.NoError(t, st.Put(ctx, b))
	require.NoError(t, st.Put(ctx, c))

	got, err := st.Get(ctx, "c")
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("Get(c) mismatch (-want +got):\n%s", diff)
	}

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	byValve, err := st.ListByValve(ctx, "VS-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(byValve))

	none, err := st.ListByValve(ctx, "VS-404")
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, st.Delete(ctx, "a"))
	assert.ErrorIs(t, st.Delete(ctx, "a"), ErrNotFound)
	_, err = st.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Put with an existing id replaces the record.
	b.UserName = "operator"
	require.NoError(t, st.Put(ctx, b))
	got, err = st.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "operator", got.UserName)

	n, err = st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func ids(recs []types.CalculationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

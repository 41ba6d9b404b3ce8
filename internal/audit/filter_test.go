package audit

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldsOnly drops the decoded bytes so parsed resolutions compare equal
// to ones built in code.
func fieldsOnly(resolutions []Resolution) []Resolution {
	out := make([]Resolution, len(resolutions))
	for i, r := range resolutions {
		r.raw = nil
		out[i] = r
	}
	return out
}

func TestParseReport(t *testing.T) {
	t.Run("valid report", func(t *testing.T) {
		report, err := ParseReport([]byte(`{"actions":[{"action":"review","module":"lodash","resolves":[{"id":1523,"path":"a>lodash","dev":false}]}]}`))

		require.NoError(t, err)
		require.Len(t, report.Actions, 1)
		assert.Equal(t, "lodash", report.Actions[0].Module)
		assert.Equal(t, []Resolution{{ID: 1523, Path: "a>lodash", Dev: false}}, fieldsOnly(report.Actions[0].Resolves))
	})

	t.Run("malformed output", func(t *testing.T) {
		for _, input := range []string{"", "   ", "null", " null\n", "true", `"actions"`, "42", "npm ERR! network", `{"actions":`, `[1,2,3]`, `{"actions":"nope"}`} {
			_, err := ParseReport([]byte(input))
			require.Error(t, err, "input %q", input)
			assert.True(t, errors.Is(err, ErrMalformedReport))
		}
	})

	t.Run("keeps unmodeled fields", func(t *testing.T) {
		report, err := ParseReport([]byte(`{"actions":[{"resolves":[{"id":77,"path":"a>b","dev":false,"extra":"x"}]}]}`))

		require.NoError(t, err)
		data, err := json.Marshal(report.Actions[0].Resolves[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":77,"path":"a>b","dev":false,"extra":"x"}`, string(data))
	})

	t.Run("absent resolves stays nil", func(t *testing.T) {
		report, err := ParseReport([]byte(`{"actions":[{"action":"install"}]}`))

		require.NoError(t, err)
		assert.Nil(t, report.Actions[0].Resolves)
	})
}

func TestFilter_DropsAllowlistedKeepsDev(t *testing.T) {
	report, err := ParseReport([]byte(`{"actions":[{"resolves":[{"id":1523,"dev":false},{"id":9999,"dev":true}]}]}`))
	require.NoError(t, err)

	verdict := NewFilter(1523).Evaluate(report)

	assert.Equal(t, []Resolution{{ID: 9999, Dev: true}}, fieldsOnly(verdict.Resolutions))
	assert.Empty(t, verdict.NonDev)
	assert.Equal(t, 0, verdict.Status)
	assert.False(t, verdict.Blocking())
}

func TestFilter_RemovesAllowlistedFromEveryAction(t *testing.T) {
	report := &Report{Actions: []Action{
		{Resolves: []Resolution{{ID: 1523}, {ID: 1}}},
		{Resolves: []Resolution{{ID: 1523, Dev: true}, {ID: 2, Dev: true}}},
		{},
	}}

	NewFilter(1523).Apply(report)

	assert.Equal(t, []Resolution{{ID: 1}}, report.Actions[0].Resolves)
	assert.Equal(t, []Resolution{{ID: 2, Dev: true}}, report.Actions[1].Resolves)
	assert.Nil(t, report.Actions[2].Resolves)
}

func TestFilter_Idempotent(t *testing.T) {
	report := &Report{Actions: []Action{
		{Resolves: []Resolution{{ID: 7}, {ID: 1523}, {ID: 8, Dev: true}, {ID: 42}}},
	}}
	filter := NewFilter(1523, 42)

	filter.Apply(report)
	once := append([]Resolution(nil), report.Actions[0].Resolves...)
	filter.Apply(report)

	assert.Equal(t, once, report.Actions[0].Resolves)
	for _, r := range report.Actions[0].Resolves {
		assert.False(t, filter.Allowed(r.ID), "allow-listed id %d survived", r.ID)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		report     *Report
		wantAll    []Resolution
		wantNonDev []Resolution
	}{
		{
			name:       "nil report",
			report:     nil,
			wantAll:    []Resolution{},
			wantNonDev: []Resolution{},
		},
		{
			name:       "no actions",
			report:     &Report{},
			wantAll:    []Resolution{},
			wantNonDev: []Resolution{},
		},
		{
			name:       "first action lacks resolves",
			report:     &Report{Actions: []Action{{Action: "install"}, {Resolves: []Resolution{{ID: 5}}}}},
			wantAll:    []Resolution{},
			wantNonDev: []Resolution{},
		},
		{
			name:       "only the first action counts",
			report:     &Report{Actions: []Action{{Resolves: []Resolution{{ID: 1, Dev: true}}}, {Resolves: []Resolution{{ID: 5}}}}},
			wantAll:    []Resolution{{ID: 1, Dev: true}},
			wantNonDev: []Resolution{},
		},
		{
			name:       "mixed dev and non-dev",
			report:     &Report{Actions: []Action{{Resolves: []Resolution{{ID: 1, Dev: true}, {ID: 2}, {ID: 3}}}}},
			wantAll:    []Resolution{{ID: 1, Dev: true}, {ID: 2}, {ID: 3}},
			wantNonDev: []Resolution{{ID: 2}, {ID: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, nonDev := Extract(tt.report)
			assert.Equal(t, tt.wantAll, all)
			assert.Equal(t, tt.wantNonDev, nonDev)
		})
	}
}

func TestEvaluate_StatusPolicy(t *testing.T) {
	t.Run("dev-only findings pass", func(t *testing.T) {
		report := &Report{Actions: []Action{{Resolves: []Resolution{{ID: 1, Dev: true}, {ID: 2, Dev: true}, {ID: 3, Dev: true}}}}}

		verdict := NewFilter().Evaluate(report)

		assert.Equal(t, 0, verdict.Status)
		assert.Len(t, verdict.Resolutions, 3)
	})

	t.Run("non-dev finding fails with exactly that subset", func(t *testing.T) {
		report := &Report{Actions: []Action{{Resolves: []Resolution{{ID: 1, Dev: true}, {ID: 2}, {ID: 1523}}}}}

		verdict := NewFilter(DefaultAllowlist...).Evaluate(report)

		assert.Equal(t, 1, verdict.Status)
		assert.Equal(t, []Resolution{{ID: 2}}, verdict.NonDev)
	})
}

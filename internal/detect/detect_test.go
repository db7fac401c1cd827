package detect

import (
	"testing"
	"time"
)

// staticSource returns a fixed signal.
type staticSource struct {
	signal *Signal
}

func (s staticSource) Current() *Signal { return s.signal }

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 5, hour, 30, 0, 0, time.UTC)
	}
}

func TestClassify_TimeOfDayBuckets(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{6, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{23, Evening},
		{2, Evening},
	}
	for _, tc := range cases {
		a := NewAnalyzerWithClock(nil, at(tc.hour))
		ctx := a.Classify(time.Time{})
		if ctx.TimeOfDay != tc.want {
			t.Errorf("hour %d: expected %s, got %s", tc.hour, tc.want, ctx.TimeOfDay)
		}
	}
}

func TestClassify_EnergyLevels(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{9, EnergyHigh},
		{14, EnergyHigh},
		{8, EnergyMedium},
		{16, EnergyMedium},
		{22, EnergyLow},
		{5, EnergyLow},
	}
	for _, tc := range cases {
		a := NewAnalyzerWithClock(nil, at(tc.hour))
		ctx := a.Classify(time.Time{})
		if ctx.EnergyLevel != tc.want {
			t.Errorf("hour %d: expected %s energy, got %s", tc.hour, tc.want, ctx.EnergyLevel)
		}
	}
}

func TestClassify_WorkTypeFromSignal(t *testing.T) {
	cases := []struct {
		name   string
		signal *Signal
		want   string
	}{
		{"no signal", nil, WorkDeepCoding},
		{"fatigued debugging", &Signal{FatigueSignals: 7, AdaptationSuggestions: []string{"lots of debugging lately"}}, WorkDebugging},
		{"debugging without fatigue", &Signal{FatigueSignals: 2, AdaptationSuggestions: []string{"debugging"}}, WorkDeepCoding},
		{"creative", &Signal{AdaptationSuggestions: []string{"try a Creative warmup"}}, WorkCreative},
		{"task switching", &Signal{AdaptationSuggestions: []string{"heavy task switching detected"}}, WorkAdministrative},
		{"deep work", &Signal{AdaptationSuggestions: []string{"protect deep work blocks"}}, WorkDeepCoding},
		{"unrecognized", &Signal{AdaptationSuggestions: []string{"drink water"}}, WorkDeepCoding},
	}
	for _, tc := range cases {
		a := NewAnalyzerWithClock(staticSource{tc.signal}, at(10))
		ctx := a.Classify(time.Time{})
		if ctx.WorkType != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, ctx.WorkType)
		}
	}
}

func TestClassify_SessionDuration(t *testing.T) {
	now := at(10)
	a := NewAnalyzerWithClock(nil, now)

	ctx := a.Classify(now().Add(-42 * time.Minute))
	if ctx.SessionDurationMin != 42 {
		t.Errorf("expected 42 session minutes, got %d", ctx.SessionDurationMin)
	}

	ctx = a.Classify(time.Time{})
	if ctx.SessionDurationMin != 0 {
		t.Errorf("expected 0 session minutes with no session, got %d", ctx.SessionDurationMin)
	}
}

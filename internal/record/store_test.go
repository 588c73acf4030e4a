package record

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/field"
	"logdissect/internal/plan"
	"logdissect/internal/request"
)

type funcTemplate struct {
	dissector.Base
	fn    dissector.Func
	calls *int
}

func (f funcTemplate) Configure(string) (dissector.Template, error) { return f, nil }

func (f funcTemplate) Instantiate(dissector.Activation) (dissector.Dissector, error) {
	return dissector.Func(func(in cast.Value, emit dissector.Emitter) error {
		*f.calls++
		return f.fn(in, emit)
	}), nil
}

type catalog []dissector.Template

func (c catalog) Lookup(inputType string) []dissector.Template {
	var found []dissector.Template

	for _, t := range c {
		if t.InputType() == inputType {
			found = append(found, t)
		}
	}

	return found
}

type fixture struct {
	splitCalls int
	stampCalls int
	stampFn    dissector.Func
}

func (fx *fixture) catalog() catalog {
	split := funcTemplate{
		Base: dissector.Base{TemplateName: "split", Input: "LINE", Outputs: []dissector.Output{
			{Type: "ID", Name: "id", Casts: cast.TextOnly},
			{Type: "STAMP", Name: "time", Casts: cast.TextOnly},
		}},
		calls: &fx.splitCalls,
		fn: func(in cast.Value, emit dissector.Emitter) error {
			s, _ := in.Text()
			parts := strings.Fields(s)
			names := []struct{ typ, leaf string }{{"ID", "id"}, {"STAMP", "time"}}

			for i, n := range names {
				switch {
				case i >= len(parts):
				case parts[i] == "-":
					emit(n.typ, n.leaf, cast.Null())
				default:
					emit(n.typ, n.leaf, cast.TextValue(parts[i]))
				}
			}

			return nil
		},
	}

	stamp := funcTemplate{
		Base: dissector.Base{TemplateName: "stamp", Input: "STAMP", Outputs: []dissector.Output{
			{Type: "NUMBER", Name: "hour", Casts: cast.TextOrInteger},
			{Type: "NUMBER", Name: "minute", Casts: cast.TextOrInteger},
		}},
		calls: &fx.stampCalls,
		fn:    fx.stampFn,
	}

	if stamp.fn == nil {
		stamp.fn = func(in cast.Value, emit dissector.Emitter) error {
			s, _ := in.Text()

			h, m, ok := strings.Cut(s, ":")
			if !ok {
				return dissector.Fail(s, errors.New("expected HH:MM"))
			}

			hour, err := strconv.ParseInt(h, 10, 64)
			if err != nil {
				return err
			}

			minute, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				return err
			}

			emit("NUMBER", "hour", cast.IntegerValue(hour))
			emit("NUMBER", "minute", cast.IntegerValue(minute))

			return nil
		}
	}

	return catalog{split, stamp}
}

func (fx *fixture) plan(t *testing.T, fields ...string) *plan.Plan {
	t.Helper()

	regs := make([]request.Registration, 0, len(fields))
	for _, f := range fields {
		regs = append(regs, request.Registration{Field: f, Casts: cast.TextOnly})
	}

	d, diags := request.Compile(regs, nil)
	require.NoError(t, diags.Error())

	p, _, err := plan.NewResolver(fx.catalog(), "LINE", plan.DefaultConfig()).Resolve(d)
	require.NoError(t, err)

	return p
}

var (
	hourID   = field.ID{Type: "NUMBER", Path: "time.hour"}
	minuteID = field.ID{Type: "NUMBER", Path: "time.minute"}
	timeID   = field.ID{Type: "STAMP", Path: "time"}
)

func TestStore_Run(t *testing.T) {
	fx := &fixture{}
	p := fx.plan(t, "NUMBER:time.hour", "ID:id")

	s := NewStore()
	require.NoError(t, s.Run(p, "abc 11:27"))

	assert.Equal(t, Complete, s.State())
	assert.Equal(t, cast.IntegerValue(11), s.Get(hourID))
	assert.Equal(t, cast.TextValue("abc"), s.Get(field.ID{Type: "ID", Path: "id"}))
	assert.Equal(t, cast.TextValue("abc 11:27"), s.Get(field.Root("LINE")))

	entry, ok := s.Lookup(hourID)
	require.True(t, ok)
	assert.Equal(t, cast.TextOrInteger, entry.Casts)

	_, ok = s.Lookup(minuteID)
	assert.False(t, ok, "outputs that were not requested are dropped")
	assert.False(t, s.Get(minuteID).IsPresent())

	assert.Equal(t, []field.ID{field.Root("LINE"), {Type: "ID", Path: "id"}, timeID, hourID}, s.Fields())
}

func TestStore_SkipsMissingInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "null", input: "abc -"},
		{name: "absent", input: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := &fixture{}
			p := fx.plan(t, "NUMBER:time.hour")

			s := NewStore()
			require.NoError(t, s.Run(p, tt.input))

			assert.Equal(t, 1, fx.splitCalls)
			assert.Equal(t, 0, fx.stampCalls, "never invoked without an input value")
			assert.Equal(t, 1, s.Skipped())
			assert.False(t, s.Get(hourID).IsPresent())
		})
	}
}

func TestStore_DissectionFailure(t *testing.T) {
	fx := &fixture{}
	p := fx.plan(t, "NUMBER:time.hour")

	s := NewStore()
	err := s.Run(p, "abc 1127")

	var df *DissectionFailure
	require.ErrorAs(t, err, &df)
	assert.Equal(t, "STAMP:time", df.Field)
	assert.Equal(t, "1127", df.Fragment)
	assert.Equal(t, "stamp", df.Dissector)
	assert.Contains(t, df.Message, "expected HH:MM")

	var failure *dissector.Failure
	assert.ErrorAs(t, err, &failure)

	assert.Equal(t, Complete, s.State())
	assert.Equal(t, cast.TextValue("1127"), s.Get(timeID), "values produced before the failure stay readable")
}

func TestStore_UndeclaredOutput(t *testing.T) {
	fx := &fixture{stampFn: func(_ cast.Value, emit dissector.Emitter) error {
		emit("NUMBER", "second", cast.IntegerValue(1))
		return nil
	}}
	p := fx.plan(t, "NUMBER:time.hour")

	err := NewStore().Run(p, "abc 11:27")

	var ice *InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "stamp", ice.Dissector)
	assert.Equal(t, "NUMBER:time.second", ice.Field)
	assert.Equal(t, "output not declared", ice.Reason)
}

func TestStore_DoubleWrite(t *testing.T) {
	fx := &fixture{stampFn: func(_ cast.Value, emit dissector.Emitter) error {
		emit("NUMBER", "hour", cast.IntegerValue(1))
		emit("NUMBER", "hour", cast.IntegerValue(2))

		return nil
	}}
	p := fx.plan(t, "NUMBER:time.hour")

	s := NewStore()
	err := s.Run(p, "abc 11:27")

	var ice *InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "stamp", ice.Dissector)
	assert.Equal(t, "NUMBER:time.hour", ice.Field)
	assert.Equal(t, cast.IntegerValue(1), s.Get(hourID))
}

func TestStore_Lifecycle(t *testing.T) {
	fx := &fixture{}
	p := fx.plan(t, "NUMBER:time.hour")

	s := NewStore()
	assert.Equal(t, Fresh, s.State())

	require.NoError(t, s.Run(p, "abc 11:27"))
	assert.ErrorIs(t, s.Run(p, "abc 12:00"), ErrBusy)

	s.Reset()
	assert.Equal(t, Discarded, s.State())
	assert.Empty(t, s.Fields())

	require.NoError(t, s.Run(p, "abc 12:00"))
	assert.Equal(t, cast.IntegerValue(12), s.Get(hourID))
	assert.Equal(t, "discarded", Discarded.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestStore_Put(t *testing.T) {
	s := NewStore()
	id := field.ID{Type: "IP", Path: "ip"}

	require.NoError(t, s.Put(id, cast.TextValue("10.0.0.1"), cast.TextOnly))

	err := s.Put(id, cast.TextValue("10.0.0.2"), cast.TextOnly)

	var ice *InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "internal consistency: IP:ip: field written twice", err.Error())
}

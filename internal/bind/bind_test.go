package bind

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdissect/cast"
	"logdissect/dissector"
	"logdissect/internal/field"
	"logdissect/internal/plan"
	"logdissect/internal/record"
	"logdissect/internal/request"
)

type srcTemplate struct{ dissector.Base }

func (s srcTemplate) Configure(string) (dissector.Template, error) { return s, nil }

func (s srcTemplate) Instantiate(dissector.Activation) (dissector.Dissector, error) {
	return dissector.Func(func(cast.Value, dissector.Emitter) error { return nil }), nil
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

func testPlan(t *testing.T, fields ...string) *plan.Plan {
	t.Helper()

	c := catalog{srcTemplate{dissector.Base{TemplateName: "src", Input: "LINE", Outputs: []dissector.Output{
		{Type: "VALUE", Name: "value", Casts: cast.TextOrIntegerOrFloat},
		{Type: "NUMBER", Name: "count", Casts: cast.TextOrInteger},
		{Type: "STRING", Name: dissector.Wildcard, Casts: cast.TextOnly},
	}}}}

	regs := make([]request.Registration, 0, len(fields))
	for _, f := range fields {
		regs = append(regs, request.Registration{Field: f, Casts: cast.TextOrIntegerOrFloat})
	}

	d, diags := request.Compile(regs, nil)
	require.NoError(t, diags.Error())

	p, _, err := plan.NewResolver(c, "LINE", plan.DefaultConfig()).Resolve(d)
	require.NoError(t, err)

	return p
}

type rec struct {
	got []string
}

func (r *rec) add(kind, f string, v any) {
	r.got = append(r.got, fmt.Sprintf("%s %s=%v", kind, f, v))
}

func bindings(spec string, policy Policy) []Binding[*rec] {
	s := field.MustParseSpec(spec)

	return []Binding[*rec]{
		{Spec: s, Casts: cast.TextOnly, Policy: policy, Sink: Text(func(r *rec, f string, v *string) {
			if v == nil {
				r.add("text", f, "<nil>")
				return
			}
			r.add("text", f, fmt.Sprintf("%q", *v))
		})},
		{Spec: s, Casts: cast.IntegerOnly, Policy: policy, Sink: Integer(func(r *rec, f string, v *int64) {
			if v == nil {
				r.add("integer", f, "<nil>")
				return
			}
			r.add("integer", f, *v)
		})},
		{Spec: s, Casts: cast.FloatOnly, Policy: policy, Sink: Float(func(r *rec, f string, v *float64) {
			if v == nil {
				r.add("float", f, "<nil>")
				return
			}
			r.add("float", f, *v)
		})},
	}
}

func TestDeliver_PolicyMatrix(t *testing.T) {
	const f = "VALUE:value"

	tests := []struct {
		name     string
		value    cast.Value
		policy   Policy
		expected []string
	}{
		{name: "normal/always", value: cast.TextValue("42"), policy: Always,
			expected: []string{`text VALUE:value="42"`, "integer VALUE:value=42", "float VALUE:value=42"}},
		{name: "normal/not_null", value: cast.TextValue("42"), policy: NotNull,
			expected: []string{`text VALUE:value="42"`, "integer VALUE:value=42", "float VALUE:value=42"}},
		{name: "normal/not_empty", value: cast.TextValue("42"), policy: NotEmpty,
			expected: []string{`text VALUE:value="42"`, "integer VALUE:value=42", "float VALUE:value=42"}},

		{name: "empty/always", value: cast.TextValue(""), policy: Always,
			expected: []string{`text VALUE:value=""`, "integer VALUE:value=<nil>", "float VALUE:value=<nil>"}},
		{name: "empty/not_null", value: cast.TextValue(""), policy: NotNull,
			expected: []string{`text VALUE:value=""`}},
		{name: "empty/not_empty", value: cast.TextValue(""), policy: NotEmpty, expected: nil},

		{name: "null/always", value: cast.Null(), policy: Always,
			expected: []string{"text VALUE:value=<nil>", "integer VALUE:value=<nil>", "float VALUE:value=<nil>"}},
		{name: "null/not_null", value: cast.Null(), policy: NotNull, expected: nil},
		{name: "null/not_empty", value: cast.Null(), policy: NotEmpty, expected: nil},

		{name: "absent/always", value: cast.Absent(), policy: Always,
			expected: []string{"text VALUE:value=<nil>", "integer VALUE:value=<nil>", "float VALUE:value=<nil>"}},
		{name: "absent/not_null", value: cast.Absent(), policy: NotNull, expected: nil},
	}

	p := testPlan(t, f)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(p, bindings(f, tt.policy))
			require.NoError(t, err)

			s := record.NewStore()
			if tt.value.IsPresent() {
				require.NoError(t, s.Put(field.ID{Type: "VALUE", Path: "value"}, tt.value, cast.TextOrIntegerOrFloat))
			}

			r := &rec{}
			n := b.Deliver(s, r)

			assert.Equal(t, tt.expected, r.got)
			assert.Equal(t, len(tt.expected), n)
		})
	}
}

func TestDeliver_ProducerCastsLimitDelivery(t *testing.T) {
	const f = "NUMBER:count"

	p := testPlan(t, f)
	b, err := New(p, bindings(f, Always))
	require.NoError(t, err)

	s := record.NewStore()
	require.NoError(t, s.Put(field.ID{Type: "NUMBER", Path: "count"}, cast.TextValue("7"), cast.TextOrInteger))

	r := &rec{}
	b.Deliver(s, r)

	assert.Equal(t, []string{`text NUMBER:count="7"`, "integer NUMBER:count=7"}, r.got,
		"a float sink never sees a text-or-integer field")

	r = &rec{}
	b.Deliver(record.NewStore(), r)
	assert.Equal(t, []string{"text NUMBER:count=<nil>", "integer NUMBER:count=<nil>"}, r.got,
		"absent fields still respect the producer casts")
}

func TestDeliver_Wildcard(t *testing.T) {
	const f = "STRING:*"

	p := testPlan(t, f)

	var got []string

	b, err := New(p, []Binding[*rec]{{
		Spec:   field.MustParseSpec(f),
		Casts:  cast.TextOnly,
		Policy: NotEmpty,
		Sink: func(_ *rec, name string, v cast.Value) {
			got = append(got, name+"="+v.String())
		},
	}})
	require.NoError(t, err)

	s := record.NewStore()
	require.NoError(t, s.Put(field.Root("LINE"), cast.TextValue("q=x&empty="), cast.TextOnly))
	require.NoError(t, s.Put(field.ID{Type: "STRING", Path: "q"}, cast.TextValue("x"), cast.TextOnly))
	require.NoError(t, s.Put(field.ID{Type: "STRING", Path: "empty"}, cast.TextValue(""), cast.TextOnly))
	require.NoError(t, s.Put(field.ID{Type: "NUMBER", Path: "count"}, cast.TextValue("1"), cast.TextOrInteger))
	require.NoError(t, s.Put(field.ID{Type: "STRING", Path: "lang"}, cast.TextValue("en"), cast.TextOnly))

	assert.Equal(t, 2, b.Deliver(s, &rec{}))
	assert.Equal(t, []string{"STRING:q=x", "STRING:lang=en"}, got)
}

func TestDeliveryCast(t *testing.T) {
	tests := []struct {
		name     string
		wanted   cast.Set
		produced cast.Set
		value    cast.Value
		expected cast.Cast
		ok       bool
	}{
		{name: "native wins", wanted: cast.TextOrInteger, produced: cast.TextOrInteger, value: cast.IntegerValue(1), expected: cast.Integer, ok: true},
		{name: "text first", wanted: cast.TextOrIntegerOrFloat, produced: cast.TextOrInteger, value: cast.Absent(), expected: cast.Text, ok: true},
		{name: "coerce to wanted", wanted: cast.IntegerOnly, produced: cast.TextOrInteger, value: cast.TextValue("1"), expected: cast.Integer, ok: true},
		{name: "no overlap", wanted: cast.FloatOnly, produced: cast.TextOrInteger, value: cast.TextValue("1"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := DeliveryCast(tt.wanted, tt.produced, tt.value)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.expected, c)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{input: "", expected: Always},
		{input: "ALWAYS", expected: Always},
		{input: "not-null", expected: NotNull},
		{input: "not_empty", expected: NotEmpty},
		{input: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePolicy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, tt.expected.String(), mustRoundTrip(t, p))
		})
	}
}

func mustRoundTrip(t *testing.T, p Policy) string {
	t.Helper()

	again, err := ParsePolicy(p.String())
	require.NoError(t, err)

	return again.String()
}

func TestNew_Errors(t *testing.T) {
	p := testPlan(t, "VALUE:value")

	_, err := New(p, []Binding[*rec]{{Spec: field.MustParseSpec("VALUE:value"), Casts: cast.TextOnly}})
	assert.ErrorContains(t, err, "nil sink")

	_, err = New(p, []Binding[*rec]{{
		Spec:  field.MustParseSpec("NUMBER:count"),
		Casts: cast.TextOnly,
		Sink:  func(*rec, string, cast.Value) {},
	}})
	assert.ErrorContains(t, err, "not planned")
}

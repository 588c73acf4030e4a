package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdissect/cast"
	"logdissect/dissector"
)

type fakeTemplate struct {
	dissector.Base
	configErr error
	settings  string
}

func (f fakeTemplate) Configure(settings string) (dissector.Template, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}

	f.settings = settings

	return f, nil
}

func (f fakeTemplate) Instantiate(dissector.Activation) (dissector.Dissector, error) {
	return dissector.Func(func(cast.Value, dissector.Emitter) error { return nil }), nil
}

func newFake(name, input string, outputs ...dissector.Output) fakeTemplate {
	return fakeTemplate{Base: dissector.Base{TemplateName: name, Input: input, Outputs: outputs}}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	first := newFake("uniqueid", "MOD_UNIQUE_ID",
		dissector.Output{Type: "TIME.EPOCH", Name: "epoch", Casts: cast.TextOrInteger})
	second := newFake("uniqueid-alt", "MOD_UNIQUE_ID",
		dissector.Output{Type: "IP", Name: "ip", Casts: cast.TextOnly})
	other := newFake("timestamp", "TIME.STAMP",
		dissector.Output{Type: "TIME.EPOCH", Name: "epoch", Casts: cast.IntegerOnly})

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))
	require.NoError(t, r.Register(other))

	found := r.Lookup("MOD_UNIQUE_ID")
	require.Len(t, found, 2)
	assert.Equal(t, "uniqueid", found[0].Name())
	assert.Equal(t, "uniqueid-alt", found[1].Name())

	assert.Empty(t, r.Lookup("NOTHING"))
	assert.Equal(t, []string{"MOD_UNIQUE_ID", "TIME.STAMP"}, r.Types())
	assert.True(t, r.Has("timestamp"))
	assert.Nil(t, r.Get("missing"))
	assert.Equal(t, 3, r.Len())

	assert.Equal(t, cast.TextOrInteger, r.ProducibleCasts("TIME.EPOCH"))
	assert.Equal(t, cast.None, r.ProducibleCasts("HTTP.URI"))
	assert.True(t, r.Produces("IP"))
	assert.False(t, r.Produces("HTTP.URI"))

	require.Len(t, r.Outputs("uniqueid-alt"), 1)
	assert.Equal(t, "IP:ip", r.Outputs("uniqueid-alt")[0].String())
	assert.Nil(t, r.Outputs("missing"))
}

func TestRegistry_Validation(t *testing.T) {
	tests := []struct {
		name     string
		template dissector.Template
		target   error
	}{
		{name: "nil", template: nil, target: ErrInvalid},
		{name: "empty name", template: newFake("", "LINE"), target: ErrInvalid},
		{name: "empty input", template: newFake("x", " "), target: ErrInvalid},
		{
			name:     "empty output type",
			template: newFake("x", "LINE", dissector.Output{Name: "a", Casts: cast.TextOnly}),
			target:   ErrInvalid,
		},
		{
			name:     "empty output name",
			template: newFake("x", "LINE", dissector.Output{Type: "A", Casts: cast.TextOnly}),
			target:   ErrInvalid,
		},
		{
			name:     "dotted leaf",
			template: newFake("x", "LINE", dissector.Output{Type: "A", Name: "a.b", Casts: cast.TextOnly}),
			target:   ErrInvalid,
		},
		{
			name:     "no casts",
			template: newFake("x", "LINE", dissector.Output{Type: "A", Name: "a"}),
			target:   ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Register(tt.template)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newFake("x", "LINE")))

	err := r.Register(newFake("x", "OTHER"))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestRegistry_RegisterWithSettings(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterWithSettings(newFake("x", "LINE"), "dd/MMM/yyyy"))

	got, ok := r.Get("x").(fakeTemplate)
	require.True(t, ok)
	assert.Equal(t, "dd/MMM/yyyy", got.settings)

	broken := newFake("y", "LINE")
	broken.configErr = errors.New("bad pattern")

	err := r.RegisterWithSettings(broken, "QQQ")

	var ce *dissector.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "y", ce.Template)
	assert.Equal(t, "QQQ", ce.Settings)
	assert.False(t, r.Has("y"))
}

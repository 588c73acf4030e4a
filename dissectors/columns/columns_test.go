package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdissect/cast"
	"logdissect/dissector"
)

const settings = `sep=|;fields=IP:host,TIME.STAMP:time,MOD_UNIQUE_ID:id,STRING:rest`

type emitted map[string]cast.Value

func (e emitted) emit(typ, leaf string, v cast.Value) {
	e[typ+":"+leaf] = v
}

func configure(t *testing.T, settings string, opts ...Option) Template {
	t.Helper()

	tmpl, err := New(opts...).Configure(settings)
	require.NoError(t, err)

	return tmpl.(Template)
}

func TestConfigure(t *testing.T) {
	tmpl := configure(t, settings, WithInputType("ACCESSLOG"))

	assert.Equal(t, "ACCESSLOG", tmpl.InputType())
	assert.Equal(t, "|", tmpl.Separator())
	assert.Equal(t, []Column{
		{Type: "IP", Name: "host"},
		{Type: "TIME.STAMP", Name: "time"},
		{Type: "MOD_UNIQUE_ID", Name: "id"},
		{Type: "STRING", Name: "rest"},
	}, tmpl.Columns())

	outs := tmpl.PossibleOutputs()
	require.Len(t, outs, 4)
	assert.Equal(t, "TIME.STAMP:time", outs[1].String())
	assert.Equal(t, cast.TextOnly, outs[1].Casts)

	assert.Equal(t, " ", configure(t, `sep=\s;fields=A:a`).Separator())
	assert.Equal(t, "\t", configure(t, `fields=A:a`).Separator())
}

func TestConfigure_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"sep=|",
		"sep=;fields=A:a",
		"fields=A",
		"fields=:a",
		"fields=A:a.b",
		"fields=A:*",
		"fields=A:a,B:a",
		"fields=A:a;width=3",
		"fields=A:a;oops",
	} {
		_, err := New(WithName("split")).Configure(s)

		var ce *dissector.ConfigError
		require.ErrorAs(t, err, &ce, s)
		assert.Equal(t, "split", ce.Template)
		assert.ErrorIs(t, err, dissector.ErrBadSettings, s)
	}
}

func TestDissect(t *testing.T) {
	tmpl := configure(t, settings)

	inst, err := tmpl.Instantiate(dissector.NewActivation("LINE:", map[string]cast.Set{
		"host": cast.TextOnly,
		"time": cast.TextOnly,
		"rest": cast.TextOnly,
	}))
	require.NoError(t, err)

	out := emitted{}
	require.NoError(t, inst.Dissect(cast.TextValue("192.168.1.42|05/Sep/2010:11:27:50 +0200|-|a|b"), out.emit))

	assert.Equal(t, emitted{
		"IP:host":         cast.TextValue("192.168.1.42"),
		"TIME.STAMP:time": cast.TextValue("05/Sep/2010:11:27:50 +0200"),
		"STRING:rest":     cast.TextValue("a|b"),
	}, out)
}

func TestDissect_NullColumns(t *testing.T) {
	tmpl := configure(t, settings)

	inst, err := tmpl.Instantiate(dissector.NewActivation("LINE:", map[string]cast.Set{
		dissector.Wildcard: cast.TextOnly,
	}))
	require.NoError(t, err)

	out := emitted{}
	require.NoError(t, inst.Dissect(cast.TextValue("-||Ucdv38CoEFEAAEnAkM4AAAAB"), out.emit))

	assert.Equal(t, emitted{
		"IP:host":          cast.Null(),
		"TIME.STAMP:time":  cast.Null(),
		"MOD_UNIQUE_ID:id": cast.TextValue("Ucdv38CoEFEAAEnAkM4AAAAB"),
	}, out, "missing trailing columns are not emitted")

	require.NoError(t, inst.Dissect(cast.Null(), nil))
}

// Package uniqueid decodes the UNIQUE_ID value written by Apache httpd's
// mod_unique_id.
//
// The 24 characters use the alphabet [A-Za-z0-9@-] in the manner of base64
// and carry 18 bytes, big-endian: timestamp in seconds (4), IPv4 address (4),
// process id (4), counter (2) and thread index (4).
package uniqueid

import (
	"encoding/base64"
	"encoding/binary"
	"net/netip"

	"logdissect/cast"
	"logdissect/dissector"
)

const (
	Name      = "uniqueid"
	InputType = "MOD_UNIQUE_ID"
)

const encodedLen = 24

var encoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@-").
	WithPadding(base64.NoPadding)

// ID is a decoded unique id.
type ID struct {
	// Epoch is the timestamp in milliseconds. It has one second granularity.
	Epoch       int64
	IP          string
	ProcessID   int64
	Counter     int64
	ThreadIndex int64
}

// Decode decodes s. Any input that is not exactly 24 valid characters yields
// false.
func Decode(s string) (ID, bool) {
	if len(s) != encodedLen {
		return ID{}, false
	}

	b, err := encoding.DecodeString(s)
	if err != nil || len(b) != 18 {
		return ID{}, false
	}

	return ID{
		Epoch:       int64(binary.BigEndian.Uint32(b[0:4])) * 1000,
		IP:          netip.AddrFrom4([4]byte(b[4:8])).String(),
		ProcessID:   int64(binary.BigEndian.Uint32(b[8:12])),
		Counter:     int64(binary.BigEndian.Uint16(b[12:14])),
		ThreadIndex: int64(binary.BigEndian.Uint32(b[14:18])),
	}, true
}

// Template is the registrable mod_unique_id dissector.
type Template struct {
	dissector.Base
}

type Option func(*Template)

// WithInputType makes the template consume another type than MOD_UNIQUE_ID.
func WithInputType(typ string) Option {
	return func(t *Template) {
		t.Input = typ
	}
}

// WithName registers the template under another name.
func WithName(name string) Option {
	return func(t *Template) {
		t.TemplateName = name
	}
}

// New returns the template.
func New(opts ...Option) Template {
	t := Template{Base: dissector.Base{
		TemplateName: Name,
		Input:        InputType,
		Outputs: []dissector.Output{
			{Type: "TIME.EPOCH", Name: "epoch", Casts: cast.TextOrInteger},
			{Type: "IP", Name: "ip", Casts: cast.TextOnly},
			{Type: "PROCESSID", Name: "processid", Casts: cast.TextOrInteger},
			{Type: "COUNTER", Name: "counter", Casts: cast.TextOrInteger},
			{Type: "THREAD_INDEX", Name: "threadindex", Casts: cast.TextOrInteger},
		},
	}}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// Configure accepts and ignores any settings.
func (t Template) Configure(string) (dissector.Template, error) {
	return t, nil
}

func (t Template) Instantiate(act dissector.Activation) (dissector.Dissector, error) {
	return &instance{
		epoch:       act.Wants("epoch"),
		ip:          act.Wants("ip"),
		processID:   act.Wants("processid"),
		counter:     act.Wants("counter"),
		threadIndex: act.Wants("threadindex"),
	}, nil
}

type instance struct {
	epoch       bool
	ip          bool
	processID   bool
	counter     bool
	threadIndex bool
}

func (i *instance) Dissect(in cast.Value, emit dissector.Emitter) error {
	s, ok := in.Text()
	if !ok || s == "" {
		return nil
	}

	id, ok := Decode(s)
	if !ok {
		return nil
	}

	if i.epoch {
		emit("TIME.EPOCH", "epoch", cast.IntegerValue(id.Epoch))
	}

	if i.ip {
		emit("IP", "ip", cast.TextValue(id.IP))
	}

	if i.processID {
		emit("PROCESSID", "processid", cast.IntegerValue(id.ProcessID))
	}

	if i.counter {
		emit("COUNTER", "counter", cast.IntegerValue(id.Counter))
	}

	if i.threadIndex {
		emit("THREAD_INDEX", "threadindex", cast.IntegerValue(id.ThreadIndex))
	}

	return nil
}

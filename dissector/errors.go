package dissector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadSettings = errors.New("malformed dissector settings")

// ConfigError is returned when a template cannot be configured. It is fatal
// at setup: no record is processed with a half-configured template.
type ConfigError struct {
	Template string
	Settings string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dissector %q: invalid settings %q: %v", e.Template, e.Settings, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Failure is the "cannot dissect this value" condition. It is deterministic:
// dissecting the same value again fails the same way.
type Failure struct {
	Message string
	Err     error
}

// Fail builds a Failure whose message ends with the input echoed under a
// column ruler.
func Fail(input string, err error) *Failure {
	msg := "unable to dissect value"
	if err != nil {
		msg = err.Error()
	}

	return &Failure{Message: msg + "\n" + Ruler(input), Err: err}
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Ruler renders input below a column ruler:
//
//	          10        20        30
//	_123456789_123456789_123456789_
//	05/Sep/2010:11:27:50 +0200
func Ruler(input string) string {
	width := ((len(input) / 10) + 1) * 10

	var tens, ones strings.Builder

	for col := 10; col <= width; col += 10 {
		for tens.Len() < col {
			tens.WriteByte(' ')
		}

		tens.WriteString(strconv.Itoa(col))
	}

	for col := 0; col < width; col += 10 {
		ones.WriteString("_123456789")
	}

	ones.WriteString("_")

	return tens.String() + "\n" + ones.String() + "\n" + input
}

package field

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tosurnament/dashboard/internal/validate"
)

type Kind string

const (
	KindText      Kind = "text"
	KindInt       Kind = "int"
	KindRange     Kind = "range"
	KindCheck     Kind = "check"
	KindSelect    Kind = "select"
	KindDayTime   Kind = "daytime"
	KindUtcOffset Kind = "utc"
	KindChannel   Kind = "channel"
	KindRole      Kind = "role"
)

// Input is the submitted form, url.Values satisfies it.
type Input interface {
	Get(key string) string
	Has(key string) bool
}

// Field describes one editable value of a record.
type Field struct {
	Name        string
	Title       string
	Description string
	Kind        Kind

	// Text bounds, zero disables a side.
	MinLength int
	MaxLength int

	// Int bounds, nil disables a side.
	Min *int
	Max *int

	// Select choices, the submitted value is the index.
	Values []string

	AutoFocus bool
}

// Binding is a field's current value and the message shown next to it.
type Binding struct {
	Field Field
	Value string
	Error string

	// sign keeps the submitted UTC sign, an offset without time encodes to "".
	sign string
}

func (b Binding) Valid() bool {
	return b.Error == ""
}

func (b Binding) DayTime() DayTime {
	return DecodeDayTime(b.Value)
}

func (b Binding) UtcOffset() UtcOffset {
	offset := DecodeUtcOffset(b.Value)
	if b.sign != "" {
		offset.Sign = b.sign
	}
	return offset
}

// Checked reports the state of a check field.
func (b Binding) Checked() bool {
	return b.Value == "true"
}

func Text(name, title string, minLength, maxLength int) Field {
	return Field{Name: name, Title: title, Kind: KindText, MinLength: minLength, MaxLength: maxLength}
}

func Int(name, title string, min, max int) Field {
	return Field{Name: name, Title: title, Kind: KindInt, Min: &min, Max: &max}
}

func Range(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindRange}
}

func Check(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindCheck}
}

func Select(name, title string, values ...string) Field {
	return Field{Name: name, Title: title, Kind: KindSelect, Values: values}
}

func DayTimeField(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindDayTime}
}

func UtcOffsetField(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindUtcOffset}
}

func Channel(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindChannel}
}

func Role(name, title string) Field {
	return Field{Name: name, Title: title, Kind: KindRole}
}

func (f Field) Describe(description string) Field {
	f.Description = description
	return f
}

func (f Field) Focused() Field {
	f.AutoFocus = true
	return f
}

// Sub returns the input name of a part of a composite field, e.g. "utc.sign".
func (f Field) Sub(part string) string {
	return f.Name + "." + part
}

// Bind shows a stored record value. It is validated so that a record saved
// with bad data shows its error right away.
func (f Field) Bind(stored any) Binding {
	value := Stringify(stored)
	if f.Kind == KindCheck {
		value = strconv.FormatBool(truthy(stored))
	}
	return Binding{Field: f, Value: value, Error: validate.Message(f.validate(value))}
}

// Change applies submitted input on top of the stored value.
func (f Field) Change(stored any, in Input) Binding {
	b := Binding{Field: f}

	switch f.Kind {
	case KindRange:
		b.Value = strings.ToUpper(in.Get(f.Name))
	case KindInt:
		b.Value = strings.TrimSpace(in.Get(f.Name))
	case KindCheck:
		b.Value = strconv.FormatBool(in.Has(f.Name) && in.Get(f.Name) != "")
	case KindDayTime:
		dt := DecodeDayTime(Stringify(stored))
		day, ok := ParseDay(in.Get(f.Sub("day")))
		if !ok {
			b.Value = Stringify(stored)
			b.Error = "Invalid day"
			return b
		}
		dt = dt.WithDay(day)
		if t := in.Get(f.Sub("time")); day != DayUnset && t != "" {
			dt.Time = t
		}
		b.Value = dt.Encode()
	case KindUtcOffset:
		previous := Stringify(stored)
		offset := DecodeUtcOffset(previous)
		if sign := in.Get(f.Sub("sign")); in.Has(f.Sub("sign")) && sign != offset.Sign {
			offset.SetSign(sign)
		}
		if t := in.Get(f.Sub("time")); in.Has(f.Sub("time")) && t != offset.Time {
			offset.SetTime(t)
		}
		b.Value = offset.Emit(previous)
		b.sign = offset.Sign
		if offset.Touched && offset.Sign != SignPlus && offset.Sign != SignMinus {
			b.Error = "Invalid sign"
			return b
		}
		if !offset.Touched {
			return b
		}
	default:
		b.Value = in.Get(f.Name)
	}

	b.Error = validate.Message(f.validate(b.Value))
	return b
}

func (f Field) validate(value string) error {
	switch f.Kind {
	case KindText:
		return validate.Text(value, f.MinLength, f.MaxLength)
	case KindInt:
		return validate.Int(value, f.Min, f.Max)
	case KindRange:
		return validate.Range(value)
	case KindSelect:
		i, err := strconv.Atoi(value)
		if value != "" && (err != nil || i < 0 || i >= len(f.Values)) {
			return &validate.ValidationError{Message: "Invalid choice"}
		}
	case KindDayTime:
		dt := DecodeDayTime(value)
		if dt.Day != DayUnset {
			return validate.Clock(dt.Time)
		}
	case KindUtcOffset:
		if t := DecodeUtcOffset(value).Time; t != "" {
			return validate.Clock(t)
		}
	}
	return nil
}

// JSON converts a valid binding into the value sent to the API.
func (f Field) JSON(b Binding) any {
	switch f.Kind {
	case KindInt, KindSelect:
		if n, err := strconv.Atoi(b.Value); err == nil {
			return n
		}
		return nil
	case KindCheck:
		return b.Checked()
	default:
		return b.Value
	}
}

// Stringify renders a decoded JSON value the way a form control holds it.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "false" && v != "0"
	case json.Number:
		return v.String() != "0"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

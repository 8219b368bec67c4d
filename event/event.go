// Package event defines the structural events produced while traversing a value.
//
// A traversal of
//
//	{"a": [1, {"b": 2}]}
//
// yields
//
//	Object, Property("a"), Array, Number(1), Object, Property("b"),
//	Number(2), EndObject, EndArray, EndObject, End
//
// Every begin event is closed by its matching end event, Property always
// precedes the events describing its value, and a single End terminates the
// sequence. Error and DataError are out-of-band: they never affect nesting.
package event

import (
	"fmt"
	"strconv"
)

// Kind discriminates the Event union.
type Kind uint8

const (
	KindArray Kind = iota + 1
	KindObject
	KindProperty
	KindString
	KindNumber
	KindLiteral
	KindEndArray
	KindEndObject
	KindEnd
	KindError
	KindDataError
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindArray, KindObject, KindProperty, KindString, KindNumber, KindLiteral,
	KindEndArray, KindEndObject, KindEnd, KindError, KindDataError,
}

var kindNames = [...]string{
	KindArray:     "array",
	KindObject:    "object",
	KindProperty:  "property",
	KindString:    "string",
	KindNumber:    "number",
	KindLiteral:   "literal",
	KindEndArray:  "endArray",
	KindEndObject: "endObject",
	KindEnd:       "end",
	KindError:     "error",
	KindDataError: "dataError",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsValue reports whether the kind completes a value: a scalar or the end of a container.
func (k Kind) IsValue() bool {
	switch k {
	case KindString, KindNumber, KindLiteral, KindEndArray, KindEndObject:
		return true
	}
	return false
}

// Event is a single traversal step.
//
// Value holds the escaped name for Property, the escaped text for String,
// a float64 for Number and a bool or nil for Literal. Err is set for Error
// and DataError.
type Event struct {
	Kind  Kind
	Value any
	Err   error
}

func Array() Event     { return Event{Kind: KindArray} }
func Object() Event    { return Event{Kind: KindObject} }
func EndArray() Event  { return Event{Kind: KindEndArray} }
func EndObject() Event { return Event{Kind: KindEndObject} }
func End() Event       { return Event{Kind: KindEnd} }

func Property(escapedName string) Event {
	return Event{Kind: KindProperty, Value: escapedName}
}

func String(escaped string) Event {
	return Event{Kind: KindString, Value: escaped}
}

func Number(v float64) Event {
	return Event{Kind: KindNumber, Value: v}
}

// Literal accepts true, false or nil.
func Literal(v any) Event {
	return Event{Kind: KindLiteral, Value: v}
}

func Error(err error) Event {
	return Event{Kind: KindError, Err: err}
}

func DataError(err error) Event {
	return Event{Kind: KindDataError, Err: err}
}

// Text returns the payload of Property and String events.
func (e Event) Text() string {
	s, _ := e.Value.(string)
	return s
}

// Float returns the payload of Number events.
func (e Event) Float() float64 {
	f, _ := e.Value.(float64)
	return f
}

// String renders the event in the notation used by the package documentation.
func (e Event) String() string {
	switch e.Kind {
	case KindProperty, KindString:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text())
	case KindNumber:
		return fmt.Sprintf("%s(%s)", e.Kind, strconv.FormatFloat(e.Float(), 'g', -1, 64))
	case KindLiteral:
		if e.Value == nil {
			return "literal(null)"
		}
		return fmt.Sprintf("literal(%v)", e.Value)
	case KindError, KindDataError:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

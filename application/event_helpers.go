package application

import (
	"fmt"
	"reflect"

	"streameconomy/domain/events"
)

// AssertEventType safely asserts an event to a specific type with detailed error messages
func AssertEventType[T events.Event](event interface{}, expectedTypeName string) (T, error) {
	var zero T

	if e, ok := event.(T); ok {
		return e, nil
	}

	// Services publish values, but accept a pointer to the same event type
	if e, ok := event.(*T); ok && e != nil {
		return *e, nil
	}

	actualType := fmt.Sprintf("%T", event)
	isNilPointer := event != nil && reflect.ValueOf(event).Kind() == reflect.Ptr && reflect.ValueOf(event).IsNil()

	// Type() on a nil pointer would panic
	var eventTypeStr string
	if e, ok := event.(events.Event); ok && !isNilPointer {
		eventTypeStr = string(e.Type())
	}

	errMsg := fmt.Sprintf("event type assertion failed: expected %s, got %s", expectedTypeName, actualType)
	if eventTypeStr != "" {
		errMsg += fmt.Sprintf(" (event.Type()=%s)", eventTypeStr)
	}
	if isNilPointer {
		errMsg += " (event is nil)"
	}

	return zero, fmt.Errorf("%s", errMsg)
}

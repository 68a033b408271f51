package decode

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Options tunes decode behaviour.
type Options struct {
	// WeaklyTypedInput (default true) accepts e.g. "123" -> int, 1.0 -> int64.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Struct decodes a generic JSON object into a typed payload T.
// Field matching uses the `json` tag. T is a boundary payload such as
// SendMessage / ReadMessage.
func Struct[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("payload is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook:       floatToIntHook(),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}

// Raw decodes a raw JSON payload into T via the generic map path, so the
// same weak-typing rules apply to every inbound event.
func Raw[T any](raw json.RawMessage, opts ...Options) (*T, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return Struct[T](m, opts...)
}

// floatToIntHook converts float64 (the JSON number type) to int kinds.
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.Float64 {
			return data, nil
		}
		switch to {
		case reflect.Int:
			return int(data.(float64)), nil
		case reflect.Int32:
			return int32(data.(float64)), nil
		case reflect.Int64:
			return int64(data.(float64)), nil
		}
		return data, nil
	}
}

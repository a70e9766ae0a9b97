package store

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies rec into the struct pointed to by dst, matching columns to
// json tag names. Input is weakly typed so a read_status stored as bool,
// int or string decodes the same way.
func Decode(rec Record, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("decode %s: %w", rec.ID(), err)
	}
	return nil
}

// DecodeAll decodes every record into a fresh T.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := Decode(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

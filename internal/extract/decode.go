package extract

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/ldmgen/internal/document"
)

var timeType = reflect.TypeOf(time.Time{})

// epochHook turns epoch values into time.Time so records that skipped the
// timestamp pre-pass still decode.
func epochHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	if _, ok := data.(time.Time); ok {
		return data, nil
	}
	return document.ParseEpoch(data)
}

// decodeRecord copies the scalar fields of a cleaned record into out.
// Values are weakly typed, so "10" fills an int and "1" fills a bool.
func decodeRecord(rec document.Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(epochHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(rec)
}

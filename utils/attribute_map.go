package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// AttributeMap is a loosely typed bag of configuration values, as found in JSON configs.
type AttributeMap map[string]interface{}

// Has returns whether the key is present.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Float64 returns the value for name as a float64, or def when absent. Numbers encoded as
// strings or ints are converted.
func (am AttributeMap) Float64(name string, def float64) (float64, error) {
	x, has := am[name]
	if !has || x == nil {
		return def, nil
	}
	v, err := cast.ToFloat64E(x)
	if err != nil {
		return def, errors.Wrapf(err, "wanted a number for (%s)", name)
	}
	return v, nil
}

// Bool returns the value for name as a bool, or def when absent.
func (am AttributeMap) Bool(name string, def bool) (bool, error) {
	x, has := am[name]
	if !has || x == nil {
		return def, nil
	}
	v, err := cast.ToBoolE(x)
	if err != nil {
		return def, errors.Wrapf(err, "wanted a bool for (%s)", name)
	}
	return v, nil
}

// String returns the value for name as a string, or "" when absent.
func (am AttributeMap) String(name string) string {
	return cast.ToString(am[name])
}

// Decode copies the attributes into the struct pointed to by to, matching keys against `json`
// tags and weakly converting numeric strings.
func (am AttributeMap) Decode(to interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           to,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "error creating attribute decoder")
	}
	return decoder.Decode(map[string]interface{}(am))
}

package proxy

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
)

var (
	timeType   = reflect.TypeFor[time.Time]()
	numberType = reflect.TypeFor[hal.Number]()
)

// convert turns a decoded content value into t. null converts to the zero
// value of any type.
func (p *Proxy) convert(name string, v any, t reflect.Type) (reflect.Value, error) {
	mismatch := func(cause error) (reflect.Value, error) {
		err := herrors.TypeConversion(name, v, t.String())
		if cause != nil {
			err = err.WithCause(cause)
		}
		return reflect.Value{}, err
	}

	if v == nil {
		return reflect.Zero(t), nil
	}
	if env, ok := v.(*hal.Envelope); ok && t.Kind() == reflect.Interface && t.NumMethod() > 0 {
		return p.convertObject(name, env, t)
	}
	if t.Kind() == reflect.Interface {
		rv := reflect.ValueOf(plain(v))
		if !rv.Type().Implements(t) {
			return mismatch(nil)
		}
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	if env, ok := v.(*hal.Envelope); ok {
		return p.convertObject(name, env, t)
	}
	if t == timeType {
		s, ok := v.(string)
		if !ok {
			return mismatch(nil)
		}
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return mismatch(err)
		}
		return reflect.ValueOf(tm), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := p.convert(name, v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.String:
		switch s := v.(type) {
		case string:
			return reflect.ValueOf(s).Convert(t), nil
		case hal.Number:
			if t == numberType {
				return reflect.ValueOf(s), nil
			}
		}

	case reflect.Bool:
		if b, ok := v.(bool); ok {
			return reflect.ValueOf(b).Convert(t), nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(hal.Number)
		if !ok {
			return mismatch(nil)
		}
		i, err := parseInt(string(n), t.Bits())
		if err != nil {
			return mismatch(err)
		}
		out := reflect.New(t).Elem()
		out.SetInt(i)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.(hal.Number)
		if !ok {
			return mismatch(nil)
		}
		u, err := parseUint(string(n), t.Bits())
		if err != nil {
			return mismatch(err)
		}
		out := reflect.New(t).Elem()
		out.SetUint(u)
		return out, nil

	case reflect.Float32, reflect.Float64:
		n, ok := v.(hal.Number)
		if !ok {
			return mismatch(nil)
		}
		f, err := strconv.ParseFloat(string(n), t.Bits())
		if err != nil {
			return mismatch(err)
		}
		out := reflect.New(t).Elem()
		out.SetFloat(f)
		return out, nil

	case reflect.Slice:
		list, ok := v.([]any)
		if !ok {
			return mismatch(nil)
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, item := range list {
			ev, err := p.convert(fmt.Sprintf("%s[%d]", name, i), item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}
	return mismatch(nil)
}

// convertObject turns a JSON object found in content into t.
func (p *Proxy) convertObject(name string, env *hal.Envelope, t reflect.Type) (reflect.Value, error) {
	if tg, err := analyze(t); err == nil {
		return tg.wrap(p.factory.newProxy(env, p.ops)), nil
	}
	switch t.Kind() {
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(t, len(env.FieldNames()))
		for _, k := range env.FieldNames() {
			fv, _ := env.Field(k)
			ev, err := p.convert(name+"."+k, fv, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil

	case reflect.Struct:
		data, err := json.Marshal(plain(env))
		if err != nil {
			return reflect.Value{}, herrors.TypeConversion(name, env, t.String()).WithCause(err)
		}
		ptr := reflect.New(t)
		if err := json.Unmarshal(data, ptr.Interface()); err != nil {
			return reflect.Value{}, herrors.TypeConversion(name, env, t.String()).WithCause(err)
		}
		return ptr.Elem(), nil

	case reflect.Pointer:
		elem, err := p.convertObject(name, env, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	return reflect.Value{}, herrors.TypeConversion(name, env, t.String())
}

// parseInt accepts integral numbers in any JSON notation ("3", "3.0", "3e2").
func parseInt(s string, bits int) (int64, error) {
	i, err := strconv.ParseInt(s, 10, bits)
	if err == nil {
		return i, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return 0, err
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", s)
	}
	limit := math.Ldexp(1, bits-1)
	if f < -limit || f >= limit {
		return 0, fmt.Errorf("%s overflows int%d", s, bits)
	}
	return int64(f), nil
}

func parseUint(s string, bits int) (uint64, error) {
	u, err := strconv.ParseUint(s, 10, bits)
	if err == nil {
		return u, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return 0, err
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("%s is not an unsigned integer", s)
	}
	if f >= math.Ldexp(1, bits) {
		return 0, fmt.Errorf("%s overflows uint%d", s, bits)
	}
	return uint64(f), nil
}

// plain converts envelopes to map[string]any recursively, dropping links
// and embedded resources.
func plain(v any) any {
	switch x := v.(type) {
	case *hal.Envelope:
		content := x.Content()
		for k, fv := range content {
			content[k] = plain(fv)
		}
		return content
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	}
	return v
}

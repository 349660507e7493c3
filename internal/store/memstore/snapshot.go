package memstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

type snapshot struct {
	id     string
	exists bool
	data   map[string]interface{}
}

func (s *snapshot) Exists() bool { return s.exists }
func (s *snapshot) ID() string   { return s.id }

// DataTo decodes the document into a schema struct, matching fields by their
// `firestore` tags the way the production backend does.
func (s *snapshot) DataTo(v interface{}) error {
	if !s.exists {
		return fmt.Errorf("memstore: document %q does not exist", s.id)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("memstore: DataTo target must be a struct pointer")
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := fieldName(rt.Field(i))
		if name == "" {
			continue
		}
		raw, ok := s.data[name]
		if !ok || raw == nil {
			continue
		}
		if err := assign(rv.Field(i), raw); err != nil {
			return fmt.Errorf("memstore: field %q: %w", name, err)
		}
	}
	return nil
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("firestore")
	if tag == "-" {
		return ""
	}
	if tag == "" {
		return f.Name
	}
	return strings.Split(tag, ",")[0]
}

func assign(field reflect.Value, raw interface{}) error {
	rv := reflect.ValueOf(raw)
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		if rv.Kind() != reflect.String {
			return fmt.Errorf("expected string, got %T", raw)
		}
		field.SetString(rv.String())
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		switch n := raw.(type) {
		case int:
			field.SetInt(int64(n))
		case int64:
			field.SetInt(n)
		case float64:
			field.SetInt(int64(n))
		default:
			return fmt.Errorf("expected integer, got %T", raw)
		}
	case reflect.Float64:
		switch n := raw.(type) {
		case float64:
			field.SetFloat(n)
		case int:
			field.SetFloat(float64(n))
		case int64:
			field.SetFloat(float64(n))
		default:
			return fmt.Errorf("expected number, got %T", raw)
		}
	case reflect.Slice:
		return assignSlice(field, raw)
	case reflect.Struct:
		if field.Type() == reflect.TypeOf(time.Time{}) {
			t, ok := raw.(time.Time)
			if !ok {
				return fmt.Errorf("expected timestamp, got %T", raw)
			}
			field.Set(reflect.ValueOf(t))
			return nil
		}
		return fmt.Errorf("unsupported struct field type %s", field.Type())
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

func assignSlice(field reflect.Value, raw interface{}) error {
	if field.Type().Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported slice type %s", field.Type())
	}
	var elems []string
	switch vs := raw.(type) {
	case []string:
		elems = vs
	case []interface{}:
		for _, e := range vs {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("expected string element, got %T", e)
			}
			elems = append(elems, s)
		}
	default:
		return fmt.Errorf("expected array, got %T", raw)
	}
	out := reflect.MakeSlice(field.Type(), len(elems), len(elems))
	for i, s := range elems {
		out.Index(i).SetString(s)
	}
	field.Set(out)
	return nil
}

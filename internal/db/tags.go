package db

import "reflect"

// FieldTag pairs a Go struct field name with its `db` struct tag.
type FieldTag struct {
	Field string
	Column string
}

// DBTags is an ordered list of FieldTag, preserving struct field declaration order so that
// generated column and value lists always line up positionally.
type DBTags []FieldTag

// Columns returns the db column names, in field order.
func (t DBTags) Columns() []any {
	columns := make([]any, 0, len(t))
	for _, tag := range t {
		columns = append(columns, tag.Column)
	}
	return columns
}

// Fields returns the Go struct field names, in field order.
func (t DBTags) Fields() []string {
	fields := make([]string, 0, len(t))
	for _, tag := range t {
		fields = append(fields, tag.Field)
	}
	return fields
}

func structValue(s any) reflect.Value {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// AllTags returns the db tags of every field of s that carries a non-empty, non "-" db tag.
func AllTags(s any) DBTags {
	v := structValue(s)
	t := v.Type()
	tags := make(DBTags, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		column := t.Field(i).Tag.Get("db")
		if column == "" || column == "-" {
			continue
		}
		tags = append(tags, FieldTag{Field: t.Field(i).Name, Column: column})
	}
	return tags
}

// NonNilTags returns the db tags of every tagged field of s whose value is non-nil, i.e. pointer
// and slice fields that are unset are omitted so that insert statements let the database apply
// its own defaults or NULLs for them.
func NonNilTags(s any) DBTags {
	v := structValue(s)
	all := AllTags(s)
	tags := make(DBTags, 0, len(all))
	for _, tag := range all {
		field := v.FieldByName(tag.Field)
		switch field.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if field.IsNil() {
				continue
			}
		}
		tags = append(tags, tag)
	}
	return tags
}

// ColumnsAndValues resolves tags against s, returning parallel column name and value slices
// suitable for an insert or update statement.
func ColumnsAndValues(s any, tags DBTags) ([]string, []any) {
	v := structValue(s)
	columns := make([]string, 0, len(tags))
	values := make([]any, 0, len(tags))
	for _, tag := range tags {
		columns = append(columns, tag.Column)
		values = append(values, v.FieldByName(tag.Field).Interface())
	}
	return columns, values
}

// ChangedTags compares before and after, both of the same struct type, and returns the tags of
// every field whose value differs, excluding the named fields (typically immutable columns such
// as a created_at timestamp or the primary key itself).
func ChangedTags(before, after any, exclude ...string) DBTags {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	bv := structValue(before)
	av := structValue(after)
	all := AllTags(after)

	changed := make(DBTags, 0, len(all))
	for _, tag := range all {
		if excluded[tag.Field] {
			continue
		}
		bf := bv.FieldByName(tag.Field)
		af := av.FieldByName(tag.Field)
		if !reflect.DeepEqual(bf.Interface(), af.Interface()) {
			changed = append(changed, tag)
		}
	}
	return changed
}

package builder

import (
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// Enrich adds hints implied by a field's machine name. Hints already present
// are never replaced, so applying it twice changes nothing.
//
//	*date*            prepopulate date_today
//	*time*            prepopulate time_today (unless it also names a date)
//	*name|email|phone required
//	*email*           email format
//	*phone*, tel      phone format
func Enrich(children []schema.Node) {
	schema.Walk(children, func(n schema.Node) {
		if f, ok := n.(*schema.Field); ok {
			enrichField(f)
		}
	})
}

func enrichField(f *schema.Field) {
	name := strings.ToLower(f.Name)
	if name == "" {
		return
	}

	if prepopulates(f.Kind) {
		if _, ok := f.Attr(schema.PropPrepopulateType); !ok {
			switch {
			case strings.Contains(name, "date"):
				f.Prepopulate(schema.PrepopulateDateToday)
			case strings.Contains(name, "time"):
				f.Prepopulate(schema.PrepopulateTimeToday)
			}
		}
	}

	if containsAny(name, "name", "email", "phone") {
		setIfAbsent(f, schema.PropRequired, true)
	}

	if _, ok := f.Attr(schema.PropFormat); !ok {
		switch {
		case strings.Contains(name, "email"):
			f.Set(schema.PropFormat, schema.FormatEmail).Set(schema.PropFormatEnabled, true)
		case strings.Contains(name, "phone") || hasToken(name, "tel"):
			f.Set(schema.PropFormat, schema.FormatPhone).Set(schema.PropFormatEnabled, true)
		}
	}
}

// prepopulates reports whether a today-value makes sense for the kind
func prepopulates(k schema.Kind) bool {
	switch k {
	case schema.KindDate, schema.KindTime, schema.KindString, schema.KindHidden:
		return true
	}
	return false
}

func setIfAbsent(f *schema.Field, key string, v any) {
	if _, ok := f.Attr(key); !ok {
		f.Set(key, v)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasToken reports whether tok is one of the underscore-separated parts of name
func hasToken(name, tok string) bool {
	for _, part := range strings.Split(name, "_") {
		if part == tok {
			return true
		}
	}
	return false
}

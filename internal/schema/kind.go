package schema

import "strings"

// Kind identifies a field type by its xf tag
type Kind string

// Field kinds understood by the form renderer
const (
	KindString     Kind = "xf:string"
	KindText       Kind = "xf:text"
	KindNumber     Kind = "xf:number"
	KindDate       Kind = "xf:date"
	KindTime       Kind = "xf:time"
	KindBoolean    Kind = "xf:boolean"
	KindTernary    Kind = "xf:ternary"
	KindSelect     Kind = "xf:select"
	KindGroup      Kind = "xf:group"
	KindMultivalue Kind = "xf:multivalue"
	KindFile       Kind = "xf:file"
	KindSignature  Kind = "xf:signature"
	KindHidden     Kind = "xf:hidden"
)

// Structural tags for the two non-field node types
const (
	TagForm = "xf:form"
	TagPage = "xf:page"
)

// Page navigation modes for the form root
const (
	NavigationTOC  = "toc"
	NavigationNone = "none"
)

var fieldKinds = map[Kind]bool{
	KindString:     true,
	KindText:       true,
	KindNumber:     true,
	KindDate:       true,
	KindTime:       true,
	KindBoolean:    true,
	KindTernary:    true,
	KindSelect:     true,
	KindGroup:      true,
	KindMultivalue: true,
	KindFile:       true,
	KindSignature:  true,
	KindHidden:     true,
}

// Kinds returns every field kind in a stable order
func Kinds() []Kind {
	return []Kind{
		KindString, KindText, KindNumber, KindDate, KindTime,
		KindBoolean, KindTernary, KindSelect, KindGroup, KindMultivalue,
		KindFile, KindSignature, KindHidden,
	}
}

// Valid reports whether k is a known field kind
func (k Kind) Valid() bool {
	return fieldKinds[k]
}

// IsContainer reports whether nodes of this kind carry children
func (k Kind) IsContainer() bool {
	return k == KindGroup || k == KindMultivalue
}

// Short returns the kind without its xf: prefix
func (k Kind) Short() string {
	return strings.TrimPrefix(string(k), "xf:")
}

func (k Kind) String() string {
	return string(k)
}

// Property keys used in node props
const (
	PropName                   = "xfName"
	PropLabel                  = "xfLabel"
	PropChildren               = "children"
	PropPageNavigation         = "xfPageNavigation"
	PropDefaultValue           = "xfDefaultValue"
	PropOptions                = "xfOptions"
	PropMultiple               = "xfMultiple"
	PropRequired               = "xfRequired"
	PropOutputClass            = "xfOutputClass"
	PropPrepopulateType        = "xfPrepopulateValueType"
	PropPrepopulateEnabled     = "xfPrepopulateValueEnabled"
	PropPrepopulateCustomValue = "xfPrepopulateCustomValue"
	PropWhen                   = "xfWhen"
	PropWhenEnabled            = "xfWhenEnabled"
	PropWhenContextValueType   = "xfWhenContextValueType"
	PropFormat                 = "xfFormat"
	PropFormatEnabled          = "xfFormatEnabled"
)

// Prepopulation sources recognized by the renderer
const (
	PrepopulateDateToday       = "date_today"
	PrepopulateTimeToday       = "time_today"
	PrepopulateUserName        = "user_name"
	PrepopulateUserTitle       = "user_title"
	PrepopulateUserPhone       = "user_phone"
	PrepopulateLocationName    = "location_name"
	PrepopulateLocationAddress = "location_address"
	PrepopulateSelectLast      = "select_last_report"
	PrepopulateBooleanLast     = "boolean_last_report"
	PrepopulateTernaryLast     = "ternary_last_report"
	PrepopulateLastReport      = "last_report"
	PrepopulateProgramLocation = "custom:program_location_type_data"
)

// WhenFalse gates a conditional field on its target answering no
const WhenFalse = "{{TYPE_FALSE}}"

// Field formats
const (
	FormatEmail = "email"
	FormatPhone = "phone"
)

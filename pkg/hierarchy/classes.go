package hierarchy

// StatusBarPackage owns the system status bar; its subtrees are noise and never indexed.
const StatusBarPackage = "com.android.systemui"

// editTextClasses accept text input. Elements of these classes get the TEXT
// capability instead of CLICK/LONGCLICK.
var editTextClasses = map[string]bool{
	"android.widget.EditText":                   true,
	"android.widget.AutoCompleteTextView":       true,
	"android.widget.MultiAutoCompleteTextView":  true,
	"android.inputmethodservice.ExtractEditText": true,
}

// attributeKeys are the node attributes emitted by uiautomator dumps.
// Rules may only address these keys (plus the reserved ones owned by the evaluator).
var attributeKeys = map[string]bool{
	"index":           true,
	"text":            true,
	"resource-id":     true,
	"class":           true,
	"package":         true,
	"content-desc":    true,
	"checkable":       true,
	"checked":         true,
	"clickable":       true,
	"enabled":         true,
	"focusable":       true,
	"focused":         true,
	"scrollable":      true,
	"long-clickable":  true,
	"password":        true,
	"selected":        true,
	"visible-to-user": true,
	"bounds":          true,
	"hint":            true,
	"display-id":      true,
	"drawing-order":   true,
}

// IsEditText returns true if class is a text-input widget class.
func IsEditText(class string) bool {
	return editTextClasses[class]
}

// IsAttributeKey returns true if key is a recognized node attribute.
func IsAttributeKey(key string) bool {
	return attributeKeys[key]
}

// Capability is an interaction an element supports.
type Capability int

const (
	CapClick Capability = iota + 1
	CapSwipe
	CapText
	CapLongClick
)

func (c Capability) String() string {
	switch c {
	case CapClick:
		return "click"
	case CapSwipe:
		return "swipe"
	case CapText:
		return "text"
	case CapLongClick:
		return "longclick"
	default:
		return "unknown"
	}
}

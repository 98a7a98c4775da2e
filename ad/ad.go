package ad

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ad represents an advertisement in the catalog
type Ad struct {
	ID       ID     `json:"ad_id" db:"ad_id"`
	ImageURL string `json:"image_url" db:"image_url"`
	Link     string `json:"link" db:"link"`
	Tagline  string `json:"tagline" db:"tagline"`
	Text     string `json:"text" db:"text"`
	Category string `json:"category,omitempty" db:"category"`
}

// RequiredFields lists the JSON fields every catalog record must carry
var RequiredFields = []string{"ad_id", "image_url", "link", "tagline", "text"}

// EmbeddingText returns the text an ad is embedded from
func (a Ad) EmbeddingText() string {
	return a.Tagline + " " + a.Text
}

// HasImage returns true if the ad has an image to render
func (a Ad) HasImage() bool {
	return strings.TrimSpace(a.ImageURL) != ""
}

// ID identifies an ad. Catalogs may use integer or string identifiers.
type ID struct {
	num   int64
	str   string
	isNum bool
}

// IntID returns an integer ad identifier
func IntID(n int64) ID {
	return ID{num: n, isNum: true}
}

// StringID returns a string ad identifier
func StringID(s string) ID {
	return ID{str: s}
}

// IsInt returns true if the identifier is numeric
func (id ID) IsInt() bool {
	return id.isNum
}

// Int returns the numeric value of the identifier
func (id ID) Int() (int64, bool) {
	return id.num, id.isNum
}

// IsZero returns true if the identifier was never set
func (id ID) IsZero() bool {
	return !id.isNum && id.str == ""
}

func (id ID) String() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Value returns the identifier as int64 or string
func (id ID) Value() any {
	if id.isNum {
		return id.num
	}
	return id.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("ad_id must not be null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ad_id must be an integer or a string: %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*id = IntID(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return fmt.Errorf("ad_id must be an integer or a string: %s", data)
	}
	*id = IntID(int64(f))
	return nil
}

// ParseID converts a caller supplied identifier into an ID.
// Strings made only of digits are treated as integers.
func ParseID(v any) (ID, bool) {
	switch val := v.(type) {
	case ID:
		return val, !val.IsZero()
	case int:
		return IntID(int64(val)), true
	case int32:
		return IntID(int64(val)), true
	case int64:
		return IntID(val), true
	case uint:
		return IntID(int64(val)), true
	case uint32:
		return IntID(int64(val)), true
	case uint64:
		if val > math.MaxInt64 {
			return ID{}, false
		}
		return IntID(int64(val)), true
	case float64:
		if val != math.Trunc(val) || math.Abs(val) >= math.MaxInt64 {
			return ID{}, false
		}
		return IntID(int64(val)), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return ID{}, false
		}
		if isDigits(s) {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return IntID(n), true
			}
		}
		return StringID(val), true
	default:
		return ID{}, false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

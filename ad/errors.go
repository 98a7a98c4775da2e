package ad

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataSourceNotFound is returned when the catalog file or table does not exist
	ErrDataSourceNotFound = errors.New("catalog data source not found")
	// ErrDataFormat is returned when the catalog is not a list of ad objects
	ErrDataFormat = errors.New("invalid catalog data format")
	// ErrSchema is returned when a record lacks a required field
	ErrSchema = errors.New("ad record schema violation")
)

// SchemaError describes a record that lacks required fields.
// It matches both ErrSchema and ErrDataFormat.
type SchemaError struct {
	Index  int
	AdID   string
	Fields []string
	Empty  bool
}

func (e *SchemaError) Error() string {
	problem := "missing required fields"
	if e.Empty {
		problem = "empty required fields"
	}
	if e.AdID != "" {
		return fmt.Sprintf("advertisement %d (ad_id %s) %s: %s", e.Index, e.AdID, problem, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("advertisement %d %s: %s", e.Index, problem, strings.Join(e.Fields, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema || target == ErrDataFormat
}

package schema

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titler = cases.Title(language.English)

// PropertyName derives the entity property name for a column name, e.g.
// "first_name" becomes "firstName".
func PropertyName(column string) string {
	return inflect.CamelizeDownFirst(column)
}

// ColumnName derives the column name for an entity property name, e.g.
// "firstName" becomes "first_name".
func ColumnName(property string) string {
	return inflect.Underscore(property)
}

// TableName derives a table name from an entity name, e.g. "Employee"
// becomes "employees".
func TableName(entity string) string {
	return inflect.Underscore(inflect.Pluralize(entity))
}

// Label derives a human-readable label from a table or column name, used
// in error messages, e.g. "office_holders" becomes "Office Holders".
func Label(name string) string {
	return titler.String(strings.ReplaceAll(name, "_", " "))
}

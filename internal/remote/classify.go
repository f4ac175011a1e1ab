package remote

import (
	"net/http"
	"strings"
)

// ErrorKind is the closed taxonomy of remote-gateway failures that drive
// fallback decisions.
type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindRelationMissing
	KindColumnMissing
	KindForeignKeyViolation
	KindNotFound
	KindUnauthorized
)

// String returns a stable name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindRelationMissing:
		return "relation_missing"
	case KindColumnMissing:
		return "column_missing"
	case KindForeignKeyViolation:
		return "foreign_key_violation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unclassified"
	}
}

// Classification is the result of inspecting a gateway failure. Column is
// set for KindColumnMissing; ReferencedTable for KindForeignKeyViolation
// when the backend names the parent relation.
type Classification struct {
	Kind            ErrorKind
	Column          string
	ReferencedTable string
}

// Classify categorizes a remote failure from its HTTP status and response
// body. The backend does not guarantee a typed error contract, so matching
// is case-insensitive substring and SQLSTATE-code inspection of the
// free-text message. Pure function: safe to exercise with literal bodies.
func Classify(status int, body string) Classification {
	// Bodies arrive as raw JSON, so Postgres messages carry escaped quotes.
	body = strings.ReplaceAll(body, `\"`, `"`)
	lower := strings.ToLower(body)

	// Schema drift: a named column is absent. Checked before the relation
	// case because the Postgres message mentions both ("column ... of
	// relation ... does not exist").
	if strings.Contains(lower, "42703") ||
		(strings.Contains(lower, "column") && strings.Contains(lower, "does not exist")) ||
		(strings.Contains(lower, "could not find the") && strings.Contains(lower, "column")) {
		return Classification{Kind: KindColumnMissing, Column: columnFrom(body)}
	}

	// Schema not provisioned. PostgREST reports unknown tables either with
	// the Postgres 42P01 error or with its own schema-cache message.
	if strings.Contains(lower, "42p01") ||
		strings.Contains(lower, "could not find the table") ||
		(strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")) {
		return Classification{Kind: KindRelationMissing}
	}

	// A write referenced a parent row that does not exist yet.
	if strings.Contains(lower, "23503") ||
		strings.Contains(lower, "foreign key") {
		return Classification{
			Kind:            KindForeignKeyViolation,
			ReferencedTable: tableAfter(body, `table "`),
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Classification{Kind: KindUnauthorized}
	case http.StatusNotFound:
		return Classification{Kind: KindNotFound}
	}

	if strings.Contains(lower, "invalid api key") || strings.Contains(lower, "jwt") {
		return Classification{Kind: KindUnauthorized}
	}

	return Classification{Kind: KindUnclassified}
}

// columnFrom extracts the column name from either message shape:
//
//	Could not find the 'accuracy' column of 'employee_locations'
//	column "accuracy" of relation "employee_locations" does not exist
func columnFrom(body string) string {
	lower := strings.ToLower(body)

	if idx := strings.Index(lower, "could not find the '"); idx >= 0 {
		rest := body[idx+len("could not find the '"):]
		if end := strings.Index(rest, "'"); end > 0 {
			return rest[:end]
		}
	}

	if idx := strings.Index(lower, `column "`); idx >= 0 {
		rest := body[idx+len(`column "`):]
		if end := strings.Index(rest, `"`); end > 0 {
			return rest[:end]
		}
	}

	return ""
}

// tableAfter extracts the identifier following the last occurrence of
// marker, e.g. the parent relation from
//
//	Key (employee_id)=(emp-1) is not present in table "employees".
func tableAfter(body, marker string) string {
	idx := strings.LastIndex(body, marker)
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end <= 0 {
		return ""
	}
	return rest[:end]
}

// Package enums provides type-safe enumeration types for job applications and the web interface.
//
// This package uses code generation via go-pkgz/enum to create robust enum types
// with automatic string conversion, database marshaling, and parsing capabilities.
//
// The enum types are defined as unexported integer types (e.g., status int) in this file,
// and the go:generate directives invoke the enum generator to create corresponding exported
// types with all necessary methods in separate files (*_enum.go).
//
// For each enum type, the generator creates:
//   - An exported struct type (e.g., Status) with name and value fields
//   - String() method for string representation
//   - Parse functions (e.g., ParseStatus) for string-to-enum conversion
//   - Database methods (Scan/Value) for SQL compatibility
//   - JSON marshaling methods (MarshalText/UnmarshalText)
//   - Exported constants for each enum value (e.g., StatusApplied, StatusOffer)
//
// Usage:
//
//	status := enums.StatusInterview
//	fmt.Println(status.String()) // "Interview"
//
//	parsed, err := enums.ParseStatus("Offer")
//	if err != nil {
//	    // handle invalid input
//	}
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/web/enums
//
// Note: The unexported type definitions below are only used by the generator.
// All actual code should use the generated exported types.
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type status
//go:generate go run github.com/go-pkgz/enum@latest -type filter
//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower

// status represents the stage of a job application.
// This is an unexported type used only as input for the code generator.
// Use the exported Status type and its constants in actual code.
type status int

const (
	statusApplied status = iota
	statusInterview
	statusRejected
	statusOffer
)

// filter represents the dashboard filter, either all applications or one status.
// This is an unexported type used only as input for the code generator.
// Use the exported Filter type and its constants in actual code.
type filter int

const (
	filterAll filter = iota
	filterApplied
	filterInterview
	filterRejected
	filterOffer
)

// theme represents UI themes.
// This is an unexported type used only as input for the code generator.
// Use the exported Theme type and its constants in actual code.
type theme int

const (
	themeLight theme = iota
	themeDark
)

package config

import "time"

// Application constants - the fixed values of a default run
const (
	// Application Info
	AppName    = "pivotcli"
	AppVersion = "1.0.0"

	// Export source
	DefaultPageURL  = "https://jobs.homesteadstudio.co/data-engineer/assessment/download/"
	DefaultSelector = ".wp-block-button__link"
	DefaultLinkAttr = "href"

	// Resolver modes
	ModeBrowser = "browser"
	ModeHTTP    = "http"

	// Files (relative to the working directory)
	DefaultRawExportFile = "skill_test_data.xlsx"
	DefaultPivotFile     = "pivot_table.xlsx"
	DefaultDatabaseFile  = "african_cow.db"
	DefaultTableName     = "pivot_table"

	// Workbook layout
	DefaultSourceSheet = "data"
	DefaultPivotSheet  = "Sheet1"

	// Pivot layout
	DefaultIndexColumn    = "Platform (Northbeam)"
	DefaultSortColumn     = "Attributed Rev (1d)"
	DefaultColumnPrefix   = "Sum of "
	DefaultCurrencySymbol = "$"
	DefaultDecimalPlaces  = 2

	// Network Timeouts
	DefaultHTTPTimeout     = 60 * time.Second
	DefaultPipelineTimeout = 10 * time.Minute

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/pivot.log"

	// Success Messages
	MsgProcessCompleted = "Process completed."
)

// DefaultValueColumns are the summed measures in output order.
var DefaultValueColumns = []string{
	"Spend",
	"Attributed Rev (1d)",
	"Imprs",
	"Visits",
	"New Visits",
	"Transactions (1d)",
	"Email Signups (1d)",
}

// DefaultCurrencyColumns are the measures rendered with a currency symbol.
var DefaultCurrencyColumns = []string{
	"Spend",
	"Attributed Rev (1d)",
}

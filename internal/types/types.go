package types

// SelectedFile is one dropped PDF, held in memory until submission.
type SelectedFile struct {
	Name  string
	Path  string
	MIME  string
	Data  []byte
	Pages int
}

// Rejection records a dropped path that did not make it into the set.
type Rejection struct {
	Path   string
	Reason string
}

type SheetSummary struct {
	Name      string
	Rows      int
	Headers   []string
	HeaderRow int
}

type WorkbookSummary struct {
	Sheets []SheetSummary
}

// ConversionResult describes a spreadsheet saved after a successful submission.
type ConversionResult struct {
	OutputFile string
	Bytes      int
	Workbook   *WorkbookSummary
}

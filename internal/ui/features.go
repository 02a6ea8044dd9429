package ui

// Features gates optional functionality. All default to false.
type Features struct {
	History   bool // run archive is available (h, X, restore)
	Clipboard bool // c copies the cursor post
}

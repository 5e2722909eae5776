package index

// RunInfo summarises one loaded sum file.
type RunInfo struct {
	// Algorithm is set when every entry uses the same algorithm.
	Algorithm  string
	Root       string
	Total      int64
	OkCount    int64
	ErrorCount int64
	TotalBytes int64
}

// FileItem is one line of a sum file. Ok is false and Error is set when
// the named file could not be found next to the sum file.
type FileItem struct {
	Ok        bool
	Path      string
	Name      string
	Length    int64
	Hash      string
	Algorithm string
	Error     *string
}

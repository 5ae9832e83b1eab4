package workflow

// RowSource is the only input contract of the ingestion engine: an ordered
// stream of spreadsheet rows. The engine never opens files or knows about
// storage; callers adapt whatever they have (xlsx, csv, fixtures) to this.
type RowSource interface {
	// Next returns the cells of the next row. ok=false means the stream is
	// exhausted; err is a structural read failure (run-fatal).
	Next() (cells []string, ok bool, err error)
}

type sliceRowSource struct {
	rows [][]string
	pos  int
}

// NewSliceRowSource wraps in-memory rows, used by tests and the CLI csv path.
func NewSliceRowSource(rows [][]string) RowSource {
	return &sliceRowSource{rows: rows}
}

func (s *sliceRowSource) Next() ([]string, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

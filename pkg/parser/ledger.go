package parser

// Ledger records the files a parser resolved through imports, in the order
// it resolved them. The same file may be recorded more than once. A Ledger
// is not safe for concurrent use.
type Ledger struct {
	paths []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add records one resolved import.
func (l *Ledger) Add(path string) {
	l.paths = append(l.paths, path)
}

// Imports returns the recorded files without duplicates, in order of first
// occurrence.
func (l *Ledger) Imports() []string {
	seen := make(map[string]struct{}, len(l.paths))
	out := make([]string, 0, len(l.paths))
	for _, p := range l.paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Len returns the number of recorded entries, duplicates included.
func (l *Ledger) Len() int {
	return len(l.paths)
}

// Reset forgets every recorded import.
func (l *Ledger) Reset() {
	l.paths = l.paths[:0]
}

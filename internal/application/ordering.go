package application

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ordering holds the locale dependent comparators. Collators keep internal
// buffers, so an ordering must only be used under the Store mutex.
type ordering struct {
	text    *collate.Collator
	numeric *collate.Collator
	folder  cases.Caser
}

func newOrdering(tag language.Tag) *ordering {
	return &ordering{
		text:    collate.New(tag),
		numeric: collate.New(tag, collate.Numeric),
		folder:  cases.Fold(),
	}
}

// compareText orders by locale rules, falling back to byte order so that
// distinct strings never compare equal.
func (o *ordering) compareText(a, b string) int {
	if c := o.text.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareNumeric orders digit runs by value ("2" before "10").
func (o *ordering) compareNumeric(a, b string) int {
	if c := o.numeric.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func (o *ordering) sortStudentsByName(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return o.text.CompareString(students[i].Nome, students[j].Nome) < 0
	})
}

func (o *ordering) sortText(values []string) {
	sort.Slice(values, func(i, j int) bool { return o.compareText(values[i], values[j]) < 0 })
}

func (o *ordering) sortNumeric(values []string) {
	sort.Slice(values, func(i, j int) bool { return o.compareNumeric(values[i], values[j]) < 0 })
}

func (o *ordering) sortClasses(classes []ClassGroup) {
	sort.Slice(classes, func(i, j int) bool {
		if c := o.compareText(classes[i].Curso, classes[j].Curso); c != 0 {
			return c < 0
		}
		return o.compareNumeric(classes[i].Periodo, classes[j].Periodo) < 0
	})
}

// fold normalizes s for case-insensitive matching.
func (o *ordering) fold(s string) string {
	return o.folder.String(s)
}

// contains reports whether folded haystack contains the folded term.
func (o *ordering) contains(haystack, term string) bool {
	return strings.Contains(o.fold(haystack), o.fold(term))
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

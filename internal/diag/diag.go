// Package diag collects positioned problems found in input files.
package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type Item struct {
	Filename string
	Line     int
	Col      int
	Msg      string
}

func (it Item) String() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", it.Filename, it.Line, it.Col, it.Msg)
}

type Bag struct {
	Items []Item
}

func (b *Bag) Add(filename string, line int, col int, msg string) {
	b.Items = append(b.Items, Item{Filename: filename, Line: line, Col: col, Msg: msg})
}

func (b *Bag) AddAt(loc Loc, msg string) {
	b.Add(loc.Filename, loc.Line, loc.Col, msg)
}

func (b *Bag) Addf(loc Loc, format string, args ...any) {
	b.AddAt(loc, fmt.Sprintf(format, args...))
}

func (b *Bag) Empty() bool { return b == nil || len(b.Items) == 0 }

// Err returns the bag as an error, or nil when it holds nothing.
func (b *Bag) Err() error {
	if b.Empty() {
		return nil
	}
	return b
}

func (b *Bag) Error() string {
	items := b.sorted()
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.String()
	}
	return strings.Join(lines, "\n")
}

func (b *Bag) sorted() []Item {
	items := make([]Item, 0, len(b.Items))
	items = append(items, b.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Filename != items[j].Filename {
			return items[i].Filename < items[j].Filename
		}
		if items[i].Line != items[j].Line {
			return items[i].Line < items[j].Line
		}
		return items[i].Col < items[j].Col
	})
	return items
}

type Loc struct {
	Filename string
	Line     int
	Col      int
}

func Print(w io.Writer, b *Bag) {
	if b.Empty() {
		return
	}
	for _, it := range b.sorted() {
		fmt.Fprintln(w, it.String())
	}
}

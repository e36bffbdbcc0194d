package extract

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/scorelog/internal/model"
)

// RowExtractor finds the game rows of a schedule page.
//
// The source marks repeated header rows inside the table with a class
// (e.g. class="thead"); real game rows carry no class at all. Every <tr>
// without a class, or with a blank one, is reported; its cells are the
// descendant <td> elements in document order. <th> cells (the game number
// column) are not cells.
type RowExtractor struct {
	includeCommented bool
}

// NewRowExtractor creates a row extractor. With includeCommented set, tables
// shipped inside HTML comments are uncommented before parsing.
func NewRowExtractor(includeCommented bool) *RowExtractor {
	return &RowExtractor{includeCommented: includeCommented}
}

// Rows extracts game rows with the default extractor
func Rows(doc []byte) (iter.Seq[model.GameRow], error) {
	return NewRowExtractor(false).Extract(doc)
}

// Extract parses doc and returns its game rows as a lazy sequence.
// The sequence may be ranged over any number of times. A document without
// game rows yields an empty sequence.
func (e *RowExtractor) Extract(doc []byte) (iter.Seq[model.GameRow], error) {
	src := doc
	if e.includeCommented {
		src = uncomment(doc)
	}

	root, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	page := goquery.NewDocumentFromNode(root)

	return func(yield func(model.GameRow) bool) {
		page.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if strings.TrimSpace(tr.AttrOr("class", "")) != "" {
				return true
			}
			return yield(model.NewGameRow(cellTexts(tr)...))
		})
	}, nil
}

// cellTexts returns the text of every <td> under tr
func cellTexts(tr *goquery.Selection) []string {
	cells := tr.Find("td")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, td *goquery.Selection) {
		texts = append(texts, td.Text())
	})
	return texts
}

// uncomment drops comment markers so commented-out markup becomes part of the tree
func uncomment(doc []byte) []byte {
	clean := bytes.ReplaceAll(doc, []byte("<!--"), nil)
	return bytes.ReplaceAll(clean, []byte("-->"), nil)
}

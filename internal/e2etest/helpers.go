package e2etest

import (
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// FindForm finds a form in the doc identified with action formActionUrlPath and returns the form selection.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	}
	return form, nil
}

// FindInputForLabel finds the input element associated with a label in the given form.
func FindInputForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return findForLabel(form, labelText, "input", "textarea")
}

// FindSelectForLabel finds the select element associated with a label in the given form.
func FindSelectForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return findForLabel(form, labelText, "select")
}

// findForLabel finds the first element of the given tags that the label points to with its for attribute or that
// the label wraps.
func findForLabel(form *goquery.Selection, labelText string, tags ...string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains(%q)", labelText))
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}
	for _, tag := range tags {
		var field *goquery.Selection
		if id, exists := label.Attr("for"); exists {
			field = form.Find(fmt.Sprintf("%s#%s", tag, id))
		} else {
			field = label.Find(tag)
		}
		if field.Length() > 0 {
			return field.First(), nil
		}
	}
	return nil, fmt.Errorf("%v not found for label: %s", tags, labelText)
}

// MuscleLevels reads the intensity level of every muscle region drawn in the heatmap SVG of doc.
func MuscleLevels(doc *goquery.Document) (map[string]int, error) {
	levels := make(map[string]int)
	var err error
	doc.Find("svg path[data-muscle]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("data-muscle")
		raw, _ := s.Attr("data-level")
		var level int
		if level, err = strconv.Atoi(raw); err != nil {
			err = fmt.Errorf("muscle %s has invalid level %q: %w", id, raw, err)
			return false
		}
		levels[id] = level
		return true
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

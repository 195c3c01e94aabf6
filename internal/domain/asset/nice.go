package asset

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// Nice classification bounds.
const (
	MinNiceClass = 1
	MaxNiceClass = 45
)

// NiceItem is one goods or services line inside a class.
type NiceItem struct {
	SubIndex    int    `json:"sub_index,omitempty"`
	Description string `json:"description"`
}

// NiceClass groups the selected items of one Nice class.
type NiceClass struct {
	ClassNo int        `json:"class_no"`
	Items   []NiceItem `json:"items"`
}

// selectionLine matches "(35) Advertising" and "(9-1) Computer software".
var selectionLine = regexp.MustCompile(`^\(\s*(\d{1,2})\s*(?:-\s*(\d{1,3})\s*)?\)\s*(.*)$`)

// ParseNiceSelections parses free-text selections, one per line, in the form
// "(<classNo>[-<subIndex>]) <description>". Blank lines are skipped. The
// result is grouped by class in ascending order; items keep their input order
// and exact duplicates are dropped.
func ParseNiceSelections(text string) ([]NiceClass, error) {
	byClass := map[int]*NiceClass{}
	seen := map[string]bool{}

	for n, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := selectionLine.FindStringSubmatch(line)
		if m == nil {
			return nil, errors.Newf(errors.ErrCodeInvalidNiceClass, "malformed nice class selection on line %d", n+1).
				WithDetail(line)
		}
		classNo, _ := strconv.Atoi(m[1])
		if classNo < MinNiceClass || classNo > MaxNiceClass {
			return nil, errors.Newf(errors.ErrCodeInvalidNiceClass, "nice class %d out of range", classNo).
				WithDetail(line)
		}
		sub := 0
		if m[2] != "" {
			sub, _ = strconv.Atoi(m[2])
		}
		desc := strings.TrimSpace(m[3])
		if desc == "" {
			return nil, errors.Newf(errors.ErrCodeInvalidNiceClass, "nice class %d selection has no description", classNo).
				WithDetail(line)
		}

		key := strconv.Itoa(classNo) + "/" + strconv.Itoa(sub) + "/" + strings.ToLower(desc)
		if seen[key] {
			continue
		}
		seen[key] = true

		nc, ok := byClass[classNo]
		if !ok {
			nc = &NiceClass{ClassNo: classNo}
			byClass[classNo] = nc
		}
		nc.Items = append(nc.Items, NiceItem{SubIndex: sub, Description: desc})
	}

	out := make([]NiceClass, 0, len(byClass))
	for _, nc := range byClass {
		out = append(out, *nc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassNo < out[j].ClassNo })
	return out, nil
}

// ClassNumbers returns the class numbers of classes in order.
func ClassNumbers(classes []NiceClass) []int {
	out := make([]int, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.ClassNo)
	}
	return out
}

//Personal.AI order the ending

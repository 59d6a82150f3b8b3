// SPDX-License-Identifier: Apache-2.0

package structure

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	selectionSingle = regexp.MustCompile(`^\d+$`)
	selectionRange  = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
)

// ParseSelection turns an expression such as "1,3-5,7" into the ascending,
// deduplicated set of 1-based item positions it names. Every token must be a
// bare integer or an inclusive a-b range inside [1, maxItems]. Parsing is
// all-or-nothing: any bad token rejects the whole expression. An empty
// expression yields an empty set.
func ParseSelection(expr string, maxItems int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return []int{}, nil
	}

	set := make(map[int]bool)
	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		switch {
		case selectionSingle.MatchString(token):
			n, err := parseBound(token, maxItems)
			if err != nil {
				return nil, err
			}
			set[n] = true
		case selectionRange.MatchString(token):
			m := selectionRange.FindStringSubmatch(token)
			lo, err := parseBound(m[1], maxItems)
			if err != nil {
				return nil, err
			}
			hi, err := parseBound(m[2], maxItems)
			if err != nil {
				return nil, err
			}
			if lo > hi {
				return nil, fmt.Errorf("%w: range %q is inverted", ErrInvalidSelection, token)
			}
			for n := lo; n <= hi; n++ {
				set[n] = true
			}
		default:
			return nil, fmt.Errorf("%w: token %q is neither a number nor a range like 3-5", ErrInvalidSelection, token)
		}
	}

	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func parseBound(s string, maxItems int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxItems {
		return 0, fmt.Errorf("%w: %s is outside 1-%d", ErrInvalidSelection, s, maxItems)
	}
	return n, nil
}

// Selection is the set of items chosen for per-item extraction.
// SelectedItems[i] is the item at position SelectedIndices[i].
type Selection struct {
	TotalItemsInDocument int    `json:"total_items_in_document"`
	SelectedIndices      []int  `json:"selected_indices"`
	SelectedItems        []Item `json:"selected_items"`
}

// Select parses expr against s and returns the matching Selection.
func Select(s *EditalStructure, expr string) (*Selection, error) {
	indices, err := ParseSelection(expr, len(s.Items))
	if err != nil {
		return nil, err
	}
	sel := &Selection{
		TotalItemsInDocument: len(s.Items),
		SelectedIndices:      indices,
		SelectedItems:        make([]Item, 0, len(indices)),
	}
	for _, idx := range indices {
		sel.SelectedItems = append(sel.SelectedItems, s.Items[idx-1])
	}
	return sel, nil
}

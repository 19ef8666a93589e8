package grouping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

// Assignment maps labels to the setups that satisfy them. Label order is the
// declaration order of the passes that produced them; setup order follows the
// input batch. Only non-empty labels are present.
type Assignment struct {
	order  []Label
	groups map[Label][]setup.Setup
}

func newAssignment(slots ...Label) Assignment {
	a := Assignment{
		order:  make([]Label, 0, len(slots)),
		groups: make(map[Label][]setup.Setup, len(slots)),
	}
	a.order = append(a.order, slots...)
	return a
}

func (a *Assignment) add(l Label, s setup.Setup) {
	if _, ok := a.groups[l]; !ok && !a.declared(l) {
		panic(fmt.Sprintf("grouping: label %q emitted by a pass that did not declare it", l))
	}
	a.groups[l] = append(a.groups[l], s)
}

func (a *Assignment) declared(l Label) bool {
	for _, o := range a.order {
		if o == l {
			return true
		}
	}
	return false
}

// merge appends another pass's labels. Passes own disjoint label sets, so a
// collision is a defect.
func (a *Assignment) merge(passName string, other Assignment) {
	for _, l := range other.order {
		if a.declared(l) {
			panic(fmt.Sprintf("grouping: pass %s produced label %q already owned by an earlier pass", passName, l))
		}
		a.order = append(a.order, l)
		if members, ok := other.groups[l]; ok {
			a.groups[l] = members
		}
	}
}

// Labels returns the non-empty labels in order
func (a Assignment) Labels() []Label {
	out := make([]Label, 0, len(a.groups))
	for _, l := range a.order {
		if len(a.groups[l]) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Get returns the members of a label; nil when the label matched nothing
func (a Assignment) Get(l Label) []setup.Setup {
	return a.groups[l]
}

// Has reports whether the label matched at least one setup
func (a Assignment) Has(l Label) bool {
	return len(a.groups[l]) > 0
}

// Len returns the number of non-empty labels
func (a Assignment) Len() int {
	return len(a.groups)
}

// Counts returns the member count of every non-empty label
func (a Assignment) Counts() map[Label]int {
	out := make(map[Label]int, len(a.groups))
	for l, members := range a.groups {
		out[l] = len(members)
	}
	return out
}

// MarshalJSON writes the mapping as an object whose keys keep label order
func (a Assignment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range a.Labels() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(l))
		if err != nil {
			return nil, err
		}
		members, err := json.Marshal(a.groups[l])
		if err != nil {
			return nil, fmt.Errorf("marshal group %s: %w", l, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(members)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

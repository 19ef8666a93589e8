// Package grouping classifies a batch of trade setups into labelled groups
// and arranges those groups into a tree rooted at the two entry styles.
//
// Every call recomputes its thresholds from the batch it is given; nothing is
// cached between calls and no input record is modified, so concurrent calls
// are safe.
package grouping

import "github.com/sawpanic/setuplab/internal/domain/setup"

// Result is the full output of one classification run
type Result struct {
	Groups     Assignment     `json:"groups"`
	Tree       []*Node        `json:"tree"`
	Thresholds AxisThresholds `json:"thresholds"`
	Config     Config         `json:"config"`
	Total      int            `json:"total"`
}

// Group runs every pass over the batch and merges the outputs
func Group(batch []setup.Setup, cfg Config) Assignment {
	groups, _ := group(batch, cfg)
	return groups
}

func group(batch []setup.Setup, cfg Config) (Assignment, axes) {
	ax := computeAxes(batch)
	out := newAssignment()
	for _, p := range passes {
		out.merge(p.name, p.run(batch, cfg, ax))
	}
	return out, ax
}

// Classify produces the flat mapping and the tree for a batch
func Classify(batch []setup.Setup, cfg Config) Result {
	groups, ax := group(batch, cfg)
	return Result{
		Groups:     groups,
		Tree:       BuildHierarchy(groups),
		Thresholds: ax.report(),
		Config:     cfg,
		Total:      len(batch),
	}
}

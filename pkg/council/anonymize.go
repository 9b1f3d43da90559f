package council

import "github.com/conclave-ai/conclave/pkg/models"

// LabelMap is the per-turn bijection from anonymized labels (A, B, …)
// onto Stage 1 results. Labels are assigned in collection order, so
// two runs over the same result list produce identical maps.
type LabelMap struct {
	labels  []string
	targets map[string]models.Stage1Result
}

// BuildLabelMap assigns labels to Stage 1 results in order.
func BuildLabelMap(stage1 []models.Stage1Result) *LabelMap {
	m := &LabelMap{
		labels:  make([]string, 0, len(stage1)),
		targets: make(map[string]models.Stage1Result, len(stage1)),
	}
	for i, res := range stage1 {
		l := label(i)
		m.labels = append(m.labels, l)
		m.targets[l] = res
	}
	return m
}

// Labels returns the assigned labels in assignment order.
func (m *LabelMap) Labels() []string {
	return m.labels
}

// Target resolves a label to its Stage 1 result.
func (m *LabelMap) Target(l string) (models.Stage1Result, bool) {
	res, ok := m.targets[l]
	return res, ok
}

// ModelByLabel returns the label→model view exposed in turn metadata.
func (m *LabelMap) ModelByLabel() map[string]string {
	out := make(map[string]string, len(m.labels))
	for _, l := range m.labels {
		out[l] = m.targets[l].Model
	}
	return out
}

// label produces A..Z, then AA, AB, … for councils past 26 seats.
func label(i int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(alphabet) {
		return string(alphabet[i])
	}
	i -= len(alphabet)
	return string(alphabet[i/len(alphabet)]) + string(alphabet[i%len(alphabet)])
}

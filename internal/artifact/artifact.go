package artifact

import "fmt"

// Kind identifies the role of a document inside a bundle.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindOrder   Kind = "order"
	KindWaiver  Kind = "waiver"
	KindBundle  Kind = "bundle"
)

// Artifact is an immutable PDF document.
type Artifact struct {
	Name  string
	Kind  Kind
	Data  []byte
	Pages int
}

func (a Artifact) String() string {
	return fmt.Sprintf("%s(%s, %d pages)", a.Name, a.Kind, a.Pages)
}

// Section locates one input artifact inside a merged bundle. FirstPage is
// 1-based.
type Section struct {
	Name      string
	Kind      Kind
	FirstPage int
	Pages     int
}

// Bundle is the merged output with a manifest of where each input landed.
type Bundle struct {
	Data     []byte
	Pages    int
	Sections []Section
}

// AsArtifact lets a bundle be merged again, e.g. into a batch file.
func (b Bundle) AsArtifact(name string) Artifact {
	return Artifact{Name: name, Kind: KindBundle, Data: b.Data, Pages: b.Pages}
}

// BusinessOrder returns invoice, order and waiver in that order, skipping
// absent parts.
func BusinessOrder(invoice, order, waiver *Artifact) []Artifact {
	parts := make([]Artifact, 0, 3)
	for _, a := range []*Artifact{invoice, order, waiver} {
		if a != nil {
			parts = append(parts, *a)
		}
	}
	return parts
}

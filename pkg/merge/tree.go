package merge

import (
	"github.com/beevik/etree"
	"github.com/zedseven/vanilla/pkg/metaxml"
)

// Harvested holds the children collected from one parent tag of an additive
// document. Nodes still belong to the additive tree; they are copied when
// spliced.
type Harvested struct {
	Tag string
	// Found is false when the additive root has no such child.
	Found bool
	Nodes []metaxml.Node
}

// Stats describes what a splice changed.
type Stats struct {
	// Appended counts the nodes appended under each parent tag.
	Appended map[string]int
	// Skipped lists parent tags that had nodes to append but are missing from
	// the base document.
	Skipped []string
}

// Total returns the number of nodes appended across all tags.
func (s Stats) Total() int {
	total := 0
	for _, n := range s.Appended {
		total += n
	}
	return total
}

// Harvest collects, for each tag in order, the direct children of the first
// child of doc's root with that exact name. Whitespace-only text is layout and
// is not collected. A missing parent yields an empty, not-found entry.
func Harvest(doc *metaxml.Document, tags []string) []Harvested {
	out := make([]Harvested, 0, len(tags))
	for _, tag := range tags {
		h := Harvested{Tag: tag}

		parent := metaxml.FirstChild(doc.Root(), tag)
		if parent != nil {
			h.Found = true
			for _, child := range parent.Child {
				if isLayout(child) {
					continue
				}
				h.Nodes = append(h.Nodes, child)
			}
		}

		out = append(out, h)
	}
	return out
}

// Splice appends deep copies of the harvested nodes to the end of the matching
// parent in base, preserving their order. Existing children are never touched,
// and parents missing from base are skipped rather than created.
func Splice(base *metaxml.Document, harvested []Harvested) Stats {
	stats := Stats{Appended: map[string]int{}}

	for _, h := range harvested {
		if len(h.Nodes) == 0 {
			continue
		}

		parent := metaxml.FirstChild(base.Root(), h.Tag)
		if parent == nil {
			stats.Skipped = append(stats.Skipped, h.Tag)
			continue
		}

		for _, n := range h.Nodes {
			cp := metaxml.CopyNode(n)
			if cp == nil {
				continue
			}
			parent.AddChild(cp)
			stats.Appended[h.Tag]++
		}
	}

	return stats
}

// MergeDocuments appends the additive document's entries into base according
// to entry. additive is only read.
func MergeDocuments(entry SchemaEntry, base, additive *metaxml.Document) Stats {
	return Splice(base, Harvest(additive, entry.ParentTags))
}

func isLayout(n metaxml.Node) bool {
	cd, ok := n.(*etree.CharData)
	return ok && !cd.IsCData() && cd.IsWhitespace()
}

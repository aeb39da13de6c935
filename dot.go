// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the current frame as a Graphviz digraph. Passes are boxes
// labeled with their position in the execution order, resources are
// ellipses (dashed for imports), and edges run writer to resource to
// reader. Call it after Compile to see the lifetimes Compile derived.
//
//	g.WriteDOT(f) // then: dot -Tsvg frame.dot -o frame.svg
func (g *Graph) WriteDOT(w io.Writer) error {
	position := make(map[int]int, len(g.order))
	for pos, idx := range g.order {
		position[idx] = pos
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph frame_%d {\n", g.frame)
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [fontname=\"monospace\"];\n")

	for _, n := range g.passes {
		label := n.pass.Name()
		style := ""
		if pos, ok := position[n.index]; ok {
			label = fmt.Sprintf("#%d %s", pos, label)
		} else {
			style = ", style=dotted"
		}
		fmt.Fprintf(&b, "\tp%d [shape=box, label=\"%s\"%s];\n", n.index, escapeDOT(label), style)
	}

	for i := range g.resources {
		r := &g.resources[i]
		// "\l" ends a left-aligned line in Graphviz labels.
		lines := []string{r.name, r.kind.String() + " " + r.lifetime.String()}
		switch {
		case r.lifetime == Imported:
		case r.kind == KindTexture:
			lines = append(lines, r.texDesc.String())
		case r.kind == KindBuffer:
			lines = append(lines, r.bufDesc.String())
		}
		var label strings.Builder
		for _, line := range lines {
			label.WriteString(escapeDOT(line))
			label.WriteString(`\l`)
		}
		style := ""
		if r.lifetime == Imported {
			style = ", style=dashed"
		}
		fmt.Fprintf(&b, "\tr%d [shape=ellipse, label=\"%s\"%s];\n", i, label.String(), style)
	}

	for i := range g.resources {
		r := &g.resources[i]
		for _, p := range r.writers {
			fmt.Fprintf(&b, "\tp%d -> r%d;\n", p, i)
		}
		for _, p := range r.readers {
			fmt.Fprintf(&b, "\tr%d -> p%d;\n", i, p)
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// escapeDOT escapes s for use inside a quoted DOT string.
func escapeDOT(s string) string {
	return dotEscaper.Replace(s)
}

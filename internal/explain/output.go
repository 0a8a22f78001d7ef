package explain

import "strings"

// OutputBuilder accumulates a tree of nodes with fields and renders it
// with box-drawing connectors, one node or field per line. Each node
// line starts with a bullet and its fields follow indented beneath it;
// see testdata/golden for rendered trees.
//
// Nodes are opened with EnterNode and closed with LeaveNode; AddField
// attaches a field to the innermost open node.
type OutputBuilder struct {
	flags Flags
	stack []*outputNode
	roots []*outputNode
}

type outputNode struct {
	name     string
	fields   []outputField
	children []*outputNode
}

type outputField struct {
	key, value string
}

// NewOutputBuilder creates an empty builder.
func NewOutputBuilder(flags Flags) *OutputBuilder {
	if flags.ShowTypes {
		flags.Verbose = true
	}
	return &OutputBuilder{flags: flags}
}

// EnterNode opens a node as a child of the current one.
func (ob *OutputBuilder) EnterNode(name string) {
	n := &outputNode{name: name}
	if len(ob.stack) == 0 {
		ob.roots = append(ob.roots, n)
	} else {
		parent := ob.stack[len(ob.stack)-1]
		parent.children = append(parent.children, n)
	}
	ob.stack = append(ob.stack, n)
}

// LeaveNode closes the current node.
func (ob *OutputBuilder) LeaveNode() {
	ob.stack = ob.stack[:len(ob.stack)-1]
}

// AddField adds a field to the current node. Fields appear in the order
// they were added.
func (ob *OutputBuilder) AddField(key, value string) {
	n := ob.stack[len(ob.stack)-1]
	n.fields = append(n.fields, outputField{key: key, value: value})
}

// AddVerboseField adds a field only in verbose mode.
func (ob *OutputBuilder) AddVerboseField(key, value string) {
	if ob.flags.Verbose {
		ob.AddField(key, value)
	}
}

// BuildStringRows returns the rendered tree, one row per line.
func (ob *OutputBuilder) BuildStringRows() []string {
	var rows []string
	for _, r := range ob.roots {
		rows = render(rows, r, "", "")
	}
	return rows
}

// BuildString returns the rendered tree with a trailing newline, or ""
// if nothing was added.
func (ob *OutputBuilder) BuildString() string {
	rows := ob.BuildStringRows()
	if len(rows) == 0 {
		return ""
	}
	return strings.Join(rows, "\n") + "\n"
}

// render appends n to rows. head prefixes the node's own line, body
// prefixes everything underneath it.
func render(rows []string, n *outputNode, head, body string) []string {
	rows = append(rows, head+"• "+n.name)

	bar := "  "
	if len(n.children) > 0 {
		bar = "│ "
	}
	for _, f := range n.fields {
		line := body + bar + f.key
		if f.value != "" {
			line += ": " + f.value
		}
		rows = append(rows, line)
	}

	for i, c := range n.children {
		rows = append(rows, body+"│")
		if i == len(n.children)-1 {
			rows = render(rows, c, body+"└── ", body+"    ")
		} else {
			rows = render(rows, c, body+"├── ", body+"│   ")
		}
	}
	return rows
}

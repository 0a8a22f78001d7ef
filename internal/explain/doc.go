// Package explain renders relational DAGs as indented text trees for
// humans and golden tests. Column references print as @node.column once
// bound and as $column before binding or inside aggregate stages.
package explain

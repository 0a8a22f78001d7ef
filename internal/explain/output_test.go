package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputBuilder(t *testing.T) {
	ob := NewOutputBuilder(Flags{})
	ob.EnterNode("join")
	ob.AddField("type", "inner")
	{
		ob.EnterNode("scan")
		ob.AddField("table", "foo")
		ob.LeaveNode()
	}
	{
		ob.EnterNode("filter")
		ob.AddField("filter", "x")
		{
			ob.EnterNode("scan")
			ob.AddField("table", "bar")
			ob.AddField("flag", "")
			ob.LeaveNode()
		}
		ob.LeaveNode()
	}
	ob.LeaveNode()

	want := "" +
		"• join\n" +
		"│ type: inner\n" +
		"│\n" +
		"├── • scan\n" +
		"│     table: foo\n" +
		"│\n" +
		"└── • filter\n" +
		"    │ filter: x\n" +
		"    │\n" +
		"    └── • scan\n" +
		"          table: bar\n" +
		"          flag\n"
	assert.Equal(t, want, ob.BuildString())
}

func TestEmptyOutputBuilder(t *testing.T) {
	ob := NewOutputBuilder(Flags{Verbose: true})
	assert.Equal(t, "", ob.BuildString())
	assert.Empty(t, ob.BuildStringRows())
}

func TestVerboseFields(t *testing.T) {
	quiet := NewOutputBuilder(Flags{})
	quiet.EnterNode("scan")
	quiet.AddVerboseField("arity", "2")
	quiet.LeaveNode()
	assert.Equal(t, []string{"• scan"}, quiet.BuildStringRows())

	// ShowTypes implies Verbose.
	typed := NewOutputBuilder(Flags{ShowTypes: true})
	typed.EnterNode("scan")
	typed.AddVerboseField("arity", "2")
	typed.LeaveNode()
	assert.Equal(t, []string{"• scan", "  arity: 2"}, typed.BuildStringRows())
}

package adapter

import (
	"fmt"

	"github.com/roach88/mirc/internal/ir"
)

// Group names and codes for the built-in React groups.
const (
	GroupProject = "project"
	GroupAntd    = "antd"
	GroupMUI     = "mui"
	GroupNative  = "native"

	CodeUnknownAntdComponent = "REACT_ADAPTER_UNKNOWN_ANTD_COMPONENT"
	CodeUnknownMUIComponent  = "REACT_ADAPTER_UNKNOWN_MUI_COMPONENT"
)

var nativeTags = []string{
	"a", "article", "aside", "audio", "br", "button", "canvas", "code", "div", "em",
	"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "iframe",
	"img", "input", "label", "li", "main", "nav", "ol", "option", "p", "pre",
	"section", "select", "small", "span", "strong", "style", "svg", "table", "tbody", "td",
	"textarea", "th", "thead", "tr", "ul", "video",
}

// Generic MIR component names and the tag each renders as.
var nativeAliases = map[string]string{
	"Container": "div",
	"Box":       "div",
	"Stack":     "div",
	"Text":      "span",
	"Paragraph": "p",
	"Image":     "img",
	"Button":    "button",
	"Link":      "a",
	"Input":     "input",
	"List":      "ul",
	"ListItem":  "li",
	"Outlet":    "div",
}

// NativeGroup maps HTML tags and generic component names.
func NativeGroup() *Group {
	g := NewGroup(GroupNative)
	for _, tag := range nativeTags {
		g.Register(Descriptor{Tag: tag, Element: tag})
	}
	for tag, el := range nativeAliases {
		g.Register(Descriptor{Tag: tag, Element: el})
	}
	g.RegisterAdapter(Descriptor{Tag: "Heading", Element: "h2"}, AdapterFunc(heading))
	return g
}

// heading picks h1..h6 from props.level.
func heading(n *ir.Node, d Descriptor) (Resolution, bool) {
	res := d.Resolution()
	if lvl, ok := n.Props["level"].(float64); ok && lvl >= 1 && lvl <= 6 && lvl == float64(int(lvl)) {
		res.Element = fmt.Sprintf("h%d", int(lvl))
	}
	return res, true
}

var antdComponents = map[string]string{
	"AntdButton":     "Button",
	"AntdCard":       "Card",
	"AntdCheckbox":   "Checkbox",
	"AntdCol":        "Col",
	"AntdDatePicker": "DatePicker",
	"AntdDivider":    "Divider",
	"AntdForm":       "Form",
	"AntdInput":      "Input",
	"AntdLayout":     "Layout",
	"AntdModal":      "Modal",
	"AntdRow":        "Row",
	"AntdSelect":     "Select",
	"AntdSpace":      "Space",
	"AntdSwitch":     "Switch",
	"AntdTable":      "Table",
	"AntdTag":        "Tag",
}

// Compound members import their parent binding.
var antdMembers = map[string][2]string{
	"AntdTypographyText":  {"Typography", "Typography.Text"},
	"AntdTypographyTitle": {"Typography", "Typography.Title"},
	"AntdFormItem":        {"Form", "Form.Item"},
}

// AntdGroup maps the Antd-prefixed tags onto the antd package.
func AntdGroup() *Group {
	g := NewGroup(GroupAntd)
	g.Prefix = "Antd"
	g.UnknownCode = CodeUnknownAntdComponent
	g.Fallback = PassthroughElement
	for tag, name := range antdComponents {
		g.Register(Descriptor{
			Tag: tag, Element: name,
			Import: &Import{Source: "antd", Kind: ImportNamed, Imported: name},
		})
	}
	for tag, m := range antdMembers {
		g.Register(Descriptor{
			Tag: tag, Element: m[1],
			Import: &Import{Source: "antd", Kind: ImportNamed, Imported: m[0]},
		})
	}
	return g
}

var muiComponents = []string{
	"Alert", "AppBar", "Avatar", "Box", "Button", "Card", "CardContent", "Chip",
	"Container", "Divider", "Grid", "IconButton", "Paper", "Stack", "TextField",
	"Toolbar", "Typography",
}

// MUIGroup maps Mui-prefixed tags onto @mui/material default imports.
func MUIGroup() *Group {
	g := NewGroup(GroupMUI)
	g.Prefix = "Mui"
	g.UnknownCode = CodeUnknownMUIComponent
	g.Fallback = PassthroughElement
	for _, name := range muiComponents {
		g.Register(Descriptor{
			Tag: "Mui" + name, Element: name,
			Import: &Import{Source: "@mui/material/" + name, Kind: ImportDefault, Local: name},
		})
	}
	return g
}

// NewReactRegistry returns the standard registry: project overrides (may be
// nil), antd, MUI, then native tags.
func NewReactRegistry(project *Group) *Registry {
	return NewRegistry(project, AntdGroup(), MUIGroup(), NativeGroup())
}

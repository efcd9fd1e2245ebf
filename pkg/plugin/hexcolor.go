package plugin

import (
	"fmt"
	"strings"

	"github.com/corelgott/dotless/pkg/env"
	"github.com/dlclark/regexp2"
)

// HexColorName is the registry name of the hex color plugin.
const HexColorName = "hexcolor"

var hexColorRegexp = regexp2.MustCompile(`(?<![\w&])#(?:[0-9a-fA-F]{8}|[0-9a-fA-F]{6}|[0-9a-fA-F]{3,4})\b`, regexp2.None)

// HexColor rewrites #rgb, #rgba, #rrggbb and #rrggbbaa colors to one case.
type HexColor struct {
	Upper bool
}

// NewHexColor is the Factory for HexColor. It accepts case=lower|upper,
// defaulting to lower.
func NewHexColor(params map[string]string) (env.Configurator, error) {
	if err := checkParams(params, "case"); err != nil {
		return nil, err
	}
	p := HexColor{}
	switch c := params["case"]; c {
	case "", "lower":
	case "upper":
		p.Upper = true
	default:
		return nil, fmt.Errorf("case must be lower or upper, got %q", c)
	}
	return configurator{name: HexColorName, create: func() (env.Plugin, error) {
		return p, nil
	}}, nil
}

// Name implements env.Plugin.
func (HexColor) Name() string { return HexColorName }

// VisitDeclaration implements env.DeclarationVisitor.
func (h HexColor) VisitDeclaration(property, value string) (string, string) {
	if !strings.Contains(value, "#") {
		return property, value
	}
	out, err := hexColorRegexp.ReplaceFunc(value, func(m regexp2.Match) string {
		if h.Upper {
			return "#" + strings.ToUpper(m.String()[1:])
		}
		return strings.ToLower(m.String())
	}, -1, -1)
	if err != nil {
		return property, value
	}
	return property, out
}

package plugin

import (
	"strings"

	"github.com/corelgott/dotless/pkg/env"
)

// RTLName is the registry name of the right-to-left plugin.
const RTLName = "rtl"

var sideSwapper = strings.NewReplacer("left", "right", "right", "left")

// keywordProperties take left or right as a value keyword.
var keywordProperties = map[string]bool{
	"float":      true,
	"clear":      true,
	"text-align": true,
}

// boxProperties take a top right bottom left shorthand.
var boxProperties = map[string]bool{
	"margin":       true,
	"padding":      true,
	"border-width": true,
	"border-style": true,
	"border-color": true,
}

// RTL mirrors a left-to-right style sheet.
type RTL struct{}

// NewRTL is the Factory for RTL. It takes no parameters.
func NewRTL(params map[string]string) (env.Configurator, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}
	return configurator{name: RTLName, create: func() (env.Plugin, error) {
		return RTL{}, nil
	}}, nil
}

// Name implements env.Plugin.
func (RTL) Name() string { return RTLName }

// VisitDeclaration implements env.DeclarationVisitor.
func (RTL) VisitDeclaration(property, value string) (string, string) {
	lower := strings.ToLower(property)
	switch {
	case keywordProperties[lower]:
		value = sideSwapper.Replace(value)
	case boxProperties[lower]:
		value = swapBoxSides(value)
	case lower == "direction":
		value = swapDirection(value)
	}
	return sideSwapper.Replace(property), value
}

// swapBoxSides turns "a b c d" into "a d c b". Shorter forms are symmetric.
func swapBoxSides(value string) string {
	fields := strings.Fields(value)
	important := ""
	if n := len(fields); n > 0 && strings.EqualFold(fields[n-1], "!important") {
		important = " " + fields[n-1]
		fields = fields[:n-1]
	}
	if len(fields) != 4 {
		return value
	}
	fields[1], fields[3] = fields[3], fields[1]
	return strings.Join(fields, " ") + important
}

func swapDirection(value string) string {
	switch strings.TrimSpace(value) {
	case "ltr":
		return "rtl"
	case "rtl":
		return "ltr"
	}
	return value
}

package css

import "strings"

// PropertyGroup classifies known style properties. Classification is
// informational only, the engine never rejects a property.
type PropertyGroup string

// Property groups.
const (
	GroupMargins   PropertyGroup = "Margins"
	GroupPadding   PropertyGroup = "Padding"
	GroupBorder    PropertyGroup = "Border"
	GroupDimension PropertyGroup = "Dimension"
	GroupDisplay   PropertyGroup = "Display"
	GroupFlex      PropertyGroup = "Flex"
	GroupPosition  PropertyGroup = "Position"
	GroupColor     PropertyGroup = "Color"
	GroupText      PropertyGroup = "Text"
	GroupEffects   PropertyGroup = "Effects"
	GroupCustom    PropertyGroup = "Custom" // --custom-property
	GroupUnknown   PropertyGroup = "X"
)

// Property describes a style property name as seen by the engine.
type Property struct {
	Name  string
	Group PropertyGroup
}

// Known returns true if property is in the table of recognized properties.
func (p Property) Known() bool {
	return p.Group != GroupUnknown && p.Group != GroupCustom
}

var groupFromProperty = map[string]PropertyGroup{
	"margin":                     GroupMargins,
	"margin-top":                 GroupMargins,
	"margin-left":                GroupMargins,
	"margin-right":               GroupMargins,
	"margin-bottom":              GroupMargins,
	"padding":                    GroupPadding,
	"padding-top":                GroupPadding,
	"padding-left":               GroupPadding,
	"padding-right":              GroupPadding,
	"padding-bottom":             GroupPadding,
	"border":                     GroupBorder,
	"border-color":               GroupBorder,
	"border-width":               GroupBorder,
	"border-style":               GroupBorder,
	"border-radius":              GroupBorder,
	"border-top":                 GroupBorder,
	"border-left":                GroupBorder,
	"border-right":               GroupBorder,
	"border-bottom":              GroupBorder,
	"border-top-left-radius":     GroupBorder,
	"border-top-right-radius":    GroupBorder,
	"border-bottom-left-radius":  GroupBorder,
	"border-bottom-right-radius": GroupBorder,
	"outline":                    GroupBorder,
	"width":                      GroupDimension,
	"height":                     GroupDimension,
	"min-width":                  GroupDimension,
	"min-height":                 GroupDimension,
	"max-width":                  GroupDimension,
	"max-height":                 GroupDimension,
	"box-sizing":                 GroupDimension,
	"display":                    GroupDisplay,
	"float":                      GroupDisplay,
	"visibility":                 GroupDisplay,
	"overflow":                   GroupDisplay,
	"opacity":                    GroupDisplay,
	"cursor":                     GroupDisplay,
	"flex":                       GroupFlex,
	"flex-flow":                  GroupFlex,
	"flex-direction":             GroupFlex,
	"flex-wrap":                  GroupFlex,
	"flex-grow":                  GroupFlex,
	"flex-shrink":                GroupFlex,
	"flex-basis":                 GroupFlex,
	"justify-content":            GroupFlex,
	"align-items":                GroupFlex,
	"align-content":              GroupFlex,
	"align-self":                 GroupFlex,
	"gap":                        GroupFlex,
	"order":                      GroupFlex,
	"position":                   GroupPosition,
	"top":                        GroupPosition,
	"bottom":                     GroupPosition,
	"left":                       GroupPosition,
	"right":                      GroupPosition,
	"z-index":                    GroupPosition,
	"color":                      GroupColor,
	"background":                 GroupColor,
	"background-color":           GroupColor,
	"background-image":           GroupColor,
	"font":                       GroupText,
	"font-size":                  GroupText,
	"font-weight":                GroupText,
	"font-family":                GroupText,
	"font-style":                 GroupText,
	"line-height":                GroupText,
	"text-align":                 GroupText,
	"text-decoration":            GroupText,
	"text-transform":             GroupText,
	"direction":                  GroupText,
	"white-space":                GroupText,
	"word-spacing":               GroupText,
	"letter-spacing":             GroupText,
	"word-break":                 GroupText,
	"word-wrap":                  GroupText,
	"transform":                  GroupEffects,
	"transition":                 GroupEffects,
	"animation":                  GroupEffects,
	"box-shadow":                 GroupEffects,
	"filter":                     GroupEffects,
}

// LookupProperty maps property name to its group. Names starting with "--"
// are custom properties, anything else not in the table is reported with
// GroupUnknown.
func LookupProperty(name string) Property {
	if g, ok := groupFromProperty[name]; ok {
		return Property{Name: name, Group: g}
	}
	if strings.HasPrefix(name, "--") {
		return Property{Name: name, Group: GroupCustom}
	}
	return Property{Name: name, Group: GroupUnknown}
}

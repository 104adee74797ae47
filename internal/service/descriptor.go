package service

import (
	"net/url"
	"strings"

	"xjsf/internal/models"
	"xjsf/internal/param"
)

// DefaultGroup labels services that declare no group.
const DefaultGroup = "ungrouped"

// Descriptor is a service's static metadata. Parameter names must be unique
// across the base, global and group parameters; nothing checks this.
type Descriptor struct {
	Name     string
	Group    string
	Summary  string
	Details  string
	Groups   []*param.Group
	Globals  []param.Parameter
	Examples []Example
}

// Example is a sample invocation shown in help.
type Example struct {
	Description string
	Settings    []param.Setting
}

// URL renders the example as "<service>?k=v&...", keeping setting order.
func (e Example) URL(service string) string {
	if len(e.Settings) == 0 {
		return service
	}
	var b strings.Builder
	b.WriteString(service)
	for i, s := range e.Settings {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(s.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.Value))
	}
	return b.String()
}

func (e Example) values() url.Values {
	values := url.Values{}
	for _, s := range e.Settings {
		values.Add(s.Name, s.Value)
	}
	return values
}

// GroupName returns the declared group or DefaultGroup.
func (d *Descriptor) GroupName() string {
	if d.Group == "" {
		return DefaultGroup
	}
	return d.Group
}

// SpecifiedGroup returns the first parameter group fully specified by values.
func (d *Descriptor) SpecifiedGroup(values url.Values) *param.Group {
	for _, g := range d.Groups {
		if g.IsSpecified(values) {
			return g
		}
	}
	return nil
}

// Describe builds the help document for svc.
func Describe(svc Service) models.ServiceDescription {
	d := svc.Descriptor()
	_, direct := svc.(DirectWriter)

	desc := models.ServiceDescription{
		Name:             d.Name,
		Group:            d.GroupName(),
		Direct:           direct,
		Summary:          d.Summary,
		Details:          d.Details,
		BaseParameters:   param.DescribeAll([]param.Parameter{FormatParam, HelpParam}),
		GlobalParameters: param.DescribeAll(d.Globals),
	}
	if len(d.Globals) == 0 {
		desc.GlobalParameters = nil
	}
	for _, g := range d.Groups {
		desc.Groups = append(desc.Groups, g.Describe())
	}
	for _, e := range d.Examples {
		desc.Examples = append(desc.Examples, models.ExampleDescription{
			Description: e.Description,
			URL:         e.URL(d.Name),
			Request:     models.NewRequestParams(e.values()),
		})
	}
	return desc
}

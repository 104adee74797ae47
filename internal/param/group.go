package param

import (
	"net/url"

	"xjsf/internal/models"
)

// Group clusters parameters that together select one input mode of a
// service. At most one group is expected to be specified per request.
type Group struct {
	Name        string
	Description string
	Parameters  []Parameter
}

func NewGroup(name, description string, params ...Parameter) *Group {
	return &Group{Name: name, Description: description, Parameters: params}
}

// IsSpecified is true when every parameter of a non-empty group is specified.
func (g *Group) IsSpecified(values url.Values) bool {
	if len(g.Parameters) == 0 {
		return false
	}
	for _, p := range g.Parameters {
		if !p.Specified(values) {
			return false
		}
	}
	return true
}

func (g *Group) Describe() models.GroupDescription {
	return models.GroupDescription{
		Name:        g.Name,
		Description: g.Description,
		Parameters:  DescribeAll(g.Parameters),
	}
}

func DescribeAll(params []Parameter) []models.ParameterDescription {
	out := make([]models.ParameterDescription, len(params))
	for i, p := range params {
		out[i] = p.Describe()
	}
	return out
}

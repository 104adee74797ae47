package services

import (
	"cmp"
	"net/http"
	"slices"

	"xjsf/internal/models"
	"xjsf/internal/service"
)

// Service groups with a fixed place in the catalog.
const (
	GroupCore = "core"
	GroupMeta = "meta"
)

// Catalog is the listServices payload.
type Catalog struct {
	models.Envelope
	Groups []CatalogGroup `xml:"serviceGroups>serviceGroup" json:"service_groups"`
}

type CatalogGroup struct {
	Name     string           `xml:"name,attr" json:"name"`
	Services []CatalogService `xml:"service" json:"services"`
}

type CatalogService struct {
	Name    string `xml:"name,attr" json:"name"`
	Summary string `xml:",chardata" json:"summary"`
}

// ListServices describes every service registered with a hub.
type ListServices struct {
	hub  *service.Hub
	desc *service.Descriptor
}

func NewListServices(hub *service.Hub) *ListServices {
	return &ListServices{
		hub: hub,
		desc: &service.Descriptor{
			Name:    "listServices",
			Group:   GroupMeta,
			Summary: "Lists available services",
			Details: "Lists the services this host offers, grouped by purpose.",
		},
	}
}

func (s *ListServices) Descriptor() *service.Descriptor { return s.desc }

func (s *ListServices) Respond(*http.Request) (models.Payload, error) {
	byGroup := make(map[string]*CatalogGroup)
	for _, svc := range s.hub.Services() {
		d := svc.Descriptor()
		g, ok := byGroup[d.GroupName()]
		if !ok {
			g = &CatalogGroup{Name: d.GroupName()}
			byGroup[g.Name] = g
		}
		g.Services = append(g.Services, CatalogService{Name: d.Name, Summary: d.Summary})
	}

	catalog := &Catalog{Groups: make([]CatalogGroup, 0, len(byGroup))}
	for _, g := range byGroup {
		catalog.Groups = append(catalog.Groups, *g)
	}
	slices.SortFunc(catalog.Groups, func(a, b CatalogGroup) int {
		return compareGroups(a.Name, b.Name)
	})
	return catalog, nil
}

// compareGroups orders core first, meta last and everything else by name.
func compareGroups(a, b string) int {
	rank := func(g string) int {
		switch g {
		case GroupCore:
			return 0
		case GroupMeta:
			return 2
		}
		return 1
	}
	if c := cmp.Compare(rank(a), rank(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

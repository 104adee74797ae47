package services

import (
	"net/http"

	"xjsf/internal/clients"
	"xjsf/internal/models"
	"xjsf/internal/service"
)

// UsageReport is the usage payload.
type UsageReport struct {
	models.Envelope
	Client ClientUsage `xml:"client" json:"client"`
}

type ClientUsage struct {
	ID      string                `xml:"id,attr" json:"id"`
	Limits  clients.Limits        `xml:"-" json:"limits"`
	Windows []clients.WindowUsage `xml:"window" json:"windows"`
}

// Usage reports the caller's limits and consumption. It is free to call.
type Usage struct {
	hub  *service.Hub
	desc *service.Descriptor
}

func NewUsage(hub *service.Hub) *Usage {
	return &Usage{
		hub: hub,
		desc: &service.Descriptor{
			Name:    "usage",
			Group:   GroupMeta,
			Summary: "Reports how much of your usage allowance you have consumed",
			Details: "Shows the client your requests are billed to, its limit for " +
				"each window and how much of it is used. Calling this service costs nothing.",
		},
	}
}

func (s *Usage) Descriptor() *service.Descriptor { return s.desc }

func (s *Usage) UsageCost(*http.Request) int { return 0 }

func (s *Usage) Respond(r *http.Request) (models.Payload, error) {
	c, err := s.hub.Identify(r)
	if err != nil {
		return nil, service.UnknownClient(err)
	}
	return &UsageReport{Client: ClientUsage{
		ID:      c.ID(),
		Limits:  c.Limits(),
		Windows: c.Usage(),
	}}, nil
}

// Package services holds the services every xjsf host carries: the service
// catalog, the caller's usage report and an echo service that exercises the
// parameter framework.
package services

import "xjsf/internal/service"

// RegisterBuiltins adds listServices, usage and echo to hub.
func RegisterBuiltins(hub *service.Hub) error {
	for _, svc := range []service.Service{NewListServices(hub), NewUsage(hub), NewEcho()} {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}
	return nil
}

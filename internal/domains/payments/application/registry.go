package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

// Registry resolves gateways by case-insensitive name. It is built once at startup.
type Registry struct {
	gateways map[string]ports.Gateway
}

func NewRegistry(gateways ...ports.Gateway) *Registry {
	r := &Registry{gateways: make(map[string]ports.Gateway, len(gateways))}
	for _, gateway := range gateways {
		if gateway != nil {
			r.gateways[strings.ToUpper(gateway.Name())] = gateway
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (ports.Gateway, error) {
	gateway, ok := r.gateways[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedGateway, name)
	}
	return gateway, nil
}

// Names lists registered gateways in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

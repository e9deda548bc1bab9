package bridge

import (
	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// NewEmbeddedBroker returns an open broker listening on addr over TCP. The caller runs
// Serve and Close. Meant for single-host setups without a separate broker.
func NewEmbeddedBroker(addr string) (*mqttbroker.Server, error) {
	server := mqttbroker.New(&mqttbroker.Options{})
	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})

	if err := server.AddListener(tcp); err != nil {
		return nil, err
	}
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}
	return server, nil
}

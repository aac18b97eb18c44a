package modem

import "context"

// ConnectProperties are the bearer settings of a connect operation.
type ConnectProperties struct {
	APN      string `yaml:"apn"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Backend performs the device requests behind the state changes.
// Calls block until the device has answered; they must return when ctx is done.
type Backend interface {
	RadioPower(ctx context.Context, on bool) error
	Register(ctx context.Context) error
	Unregister(ctx context.Context) error
	Connect(ctx context.Context, props ConnectProperties) error
	Disconnect(ctx context.Context) error
}

package client

import (
	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

type optFunc func(*options)

func (f optFunc) apply(o *options) { f(o) }

type options struct {
	logger       logger.Logger
	sessionID    uint32
	ipType       mbim.IPType
	authProtocol mbim.AuthProtocol
}

func newOptions(opts []Option) options {
	o := options{
		logger:       logger.GetLogger(),
		ipType:       mbim.IPTypeIPv4v6,
		authProtocol: mbim.AuthProtocolNone,
	}

	for _, opt := range opts {
		opt.apply(&o)
	}

	return o
}

// WithLogger sets the logger of the client.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithSessionID sets the session id used by Connect and Disconnect. The default is 0.
func WithSessionID(id uint32) Option {
	return optFunc(func(o *options) {
		o.sessionID = id
	})
}

// WithIPType sets the IP type requested by Connect. The default is IPv4v6.
func WithIPType(ipType mbim.IPType) Option {
	return optFunc(func(o *options) {
		o.ipType = ipType
	})
}

// WithAuthProtocol sets the authentication protocol used by Connect when
// credentials are given. The default is no authentication.
func WithAuthProtocol(proto mbim.AuthProtocol) Option {
	return optFunc(func(o *options) {
		o.authProtocol = proto
	})
}

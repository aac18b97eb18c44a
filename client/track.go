package client

import (
	"github.com/arloliu/go-mbim/channel"
	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/modem"
)

// IndicationSource delivers indicate-status messages. *channel.Channel implements it.
type IndicationSource interface {
	AddIndicationHandler(handler channel.IndicationHandler)
}

// Track applies indications of src to m:
//
//   - a deactivated context of the client's session moves CONNECTED to REGISTERED
//   - a lost registration moves REGISTERED to ENABLED
//   - a radio switched off moves ENABLED to DISABLED
//
// States that belong to a running operation are left to that operation.
func (c *Client) Track(src IndicationSource, m *modem.Modem) {
	src.AddIndicationHandler(func(msg *mbim.Message) {
		payload, err := mbim.DecodePayload(msg)
		if err != nil {
			if c.logger.Level() == logger.DebugLevel {
				c.logger.Debug("client: ignore indication", "cid", msg.CID, "error", err)
			}

			return
		}

		c.applyIndication(payload, m)
	})
}

func (c *Client) applyIndication(payload mbim.Payload, m *modem.Modem) {
	switch p := payload.(type) {
	case *mbim.ConnectInfo:
		if p.SessionID == c.opts.sessionID && p.ActivationState == mbim.ActivationStateDeactivated {
			m.CompareAndChangeState(modem.StateConnected, modem.StateRegistered, "context deactivated by network")
		}

	case *mbim.RegistrationStateInfo:
		if !p.RegisterState.IsRegistered() {
			m.CompareAndChangeState(modem.StateRegistered, modem.StateEnabled, "registration lost")
		}

	case *mbim.RadioStateInfo:
		if p.SwRadioState == mbim.RadioOff || p.HwRadioState == mbim.RadioOff {
			m.CompareAndChangeState(modem.StateEnabled, modem.StateDisabled, "radio off")
		}
	}
}

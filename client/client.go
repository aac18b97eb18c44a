package client

import (
	"context"
	"fmt"

	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/modem"
)

// Transactor sends one request and returns its decoded response.
// *channel.Channel implements it.
type Transactor interface {
	Transact(ctx context.Context, msg *mbim.Message) (*mbim.Message, error)
}

// Client issues Basic Connect commands through a Transactor.
type Client struct {
	tr     Transactor
	logger logger.Logger
	opts   options
}

var _ modem.Backend = (*Client)(nil)

// New creates a client sending its commands through tr.
func New(tr Transactor, opts ...Option) *Client {
	o := newOptions(opts)

	return &Client{
		tr:     tr,
		logger: o.logger,
		opts:   o,
	}
}

// DeviceCaps queries the capabilities of the function.
func (c *Client) DeviceCaps(ctx context.Context) (*mbim.DeviceCapsInfo, error) {
	info := &mbim.DeviceCapsInfo{}
	if err := c.do(ctx, "DeviceCaps", mbim.DeviceCapsQuery{}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// SubscriberReady queries the readiness of the subscriber identity module.
func (c *Client) SubscriberReady(ctx context.Context) (*mbim.SubscriberReadyInfo, error) {
	info := &mbim.SubscriberReadyInfo{}
	if err := c.do(ctx, "SubscriberReady", mbim.SubscriberReadyStatusQuery{}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// RadioState queries the hardware and software radio state.
func (c *Client) RadioState(ctx context.Context) (*mbim.RadioStateInfo, error) {
	info := &mbim.RadioStateInfo{}
	if err := c.do(ctx, "RadioState", mbim.RadioStateQuery{}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// RegisterState queries the network registration state.
func (c *Client) RegisterState(ctx context.Context) (*mbim.RegistrationStateInfo, error) {
	info := &mbim.RegistrationStateInfo{}
	if err := c.do(ctx, "RegisterState", mbim.RegisterStateQuery{}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// PacketService queries the packet service attach state.
func (c *Client) PacketService(ctx context.Context) (*mbim.PacketServiceInfo, error) {
	info := &mbim.PacketServiceInfo{}
	if err := c.do(ctx, "PacketService", mbim.PacketServiceQuery{}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// ConnectState queries the activation state of the configured session.
func (c *Client) ConnectState(ctx context.Context) (*mbim.ConnectInfo, error) {
	info := &mbim.ConnectInfo{}
	if err := c.do(ctx, "ConnectState", &mbim.ConnectQuery{SessionID: c.opts.sessionID}, info); err != nil {
		return nil, err
	}

	return info, nil
}

// RadioPower switches the software radio state on or off.
func (c *Client) RadioPower(ctx context.Context, on bool) error {
	want := mbim.RadioOff
	if on {
		want = mbim.RadioOn
	}

	info := &mbim.RadioStateInfo{}
	if err := c.do(ctx, "RadioPower", &mbim.RadioStateSet{State: want}, info); err != nil {
		return err
	}

	if info.SwRadioState != want {
		return fmt.Errorf("%w: requested %s, software radio is %s", ErrUnexpectedRadioState, want, info.SwRadioState)
	}

	if on && info.HwRadioState != mbim.RadioOn {
		return fmt.Errorf("%w: hardware radio is %s", ErrUnexpectedRadioState, info.HwRadioState)
	}

	return nil
}

// Register requests automatic network selection.
func (c *Client) Register(ctx context.Context) error {
	info := &mbim.RegistrationStateInfo{}
	cmd := &mbim.RegisterStateSet{Action: mbim.RegisterActionAutomatic}
	if err := c.do(ctx, "Register", cmd, info); err != nil {
		return err
	}

	if !info.RegisterState.IsRegistered() {
		return fmt.Errorf("%w: register state %d, network error %d", ErrNotRegistered, info.RegisterState, info.NwError)
	}

	c.logger.Info("client: registered", "provider", info.ProviderID, "name", info.ProviderName)

	return nil
}

// Unregister detaches the function from the packet service.
func (c *Client) Unregister(ctx context.Context) error {
	info := &mbim.PacketServiceInfo{}
	cmd := &mbim.PacketServiceSet{Action: mbim.PacketServiceDetach}
	if err := c.do(ctx, "Unregister", cmd, info); err != nil {
		return err
	}

	if info.PacketServiceState != mbim.PacketServiceStateDetached {
		return fmt.Errorf("%w: packet service state %d", ErrNotDetached, info.PacketServiceState)
	}

	return nil
}

// Connect activates an internet context with props.
func (c *Client) Connect(ctx context.Context, props modem.ConnectProperties) error {
	auth := mbim.AuthProtocolNone
	if props.User != "" || props.Password != "" {
		auth = c.opts.authProtocol
		if auth == mbim.AuthProtocolNone {
			auth = mbim.AuthProtocolCHAP
		}
	}

	cmd := &mbim.ConnectSet{
		SessionID:         c.opts.sessionID,
		ActivationCommand: mbim.ActivationCommandActivate,
		AccessString:      props.APN,
		UserName:          props.User,
		Password:          props.Password,
		AuthProtocol:      auth,
		IPType:            c.opts.ipType,
		ContextType:       mbim.ContextTypeInternet,
	}

	info := &mbim.ConnectInfo{}
	if err := c.do(ctx, "Connect", cmd, info); err != nil {
		return err
	}

	if info.ActivationState != mbim.ActivationStateActivated {
		return fmt.Errorf("%w: session %d activation state %d, network error %d",
			ErrNotActivated, info.SessionID, info.ActivationState, info.NwError)
	}

	c.logger.Info("client: connected", "session", info.SessionID, "apn", props.APN, "ipType", info.IPType)

	return nil
}

// Disconnect deactivates the context of the configured session.
func (c *Client) Disconnect(ctx context.Context) error {
	cmd := &mbim.ConnectSet{
		SessionID:         c.opts.sessionID,
		ActivationCommand: mbim.ActivationCommandDeactivate,
		ContextType:       mbim.ContextTypeInternet,
	}

	info := &mbim.ConnectInfo{}
	if err := c.do(ctx, "Disconnect", cmd, info); err != nil {
		return err
	}

	if info.ActivationState != mbim.ActivationStateDeactivated {
		return fmt.Errorf("%w: session %d activation state %d", ErrNotDeactivated, info.SessionID, info.ActivationState)
	}

	return nil
}

// do sends cmd and unmarshals a successful response into out.
func (c *Client) do(ctx context.Context, method string, cmd mbim.Command, out mbim.Payload) error {
	req, err := mbim.NewCommand(0, cmd)
	if err != nil {
		return fmt.Errorf("client: %s: %w", method, err)
	}

	resp, err := c.tr.Transact(ctx, req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", method, err)
	}

	if err := mbim.CheckResponse(resp, out); err != nil {
		return fmt.Errorf("client: %s: %w", method, err)
	}

	if err := resp.Status.Err(); err != nil {
		c.logger.Warn("client: command failed", "method", method, "tid", resp.TransactionID, "status", resp.Status)
		return fmt.Errorf("client: %s: %w", method, err)
	}

	if err := out.UnmarshalInformationBuffer(resp.InformationBuffer); err != nil {
		return fmt.Errorf("client: %s: %w", method, err)
	}

	if c.logger.Level() == logger.DebugLevel {
		c.logger.Debug("client: command done", "method", method, "tid", resp.TransactionID)
	}

	return nil
}

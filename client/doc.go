// Package client sends typed Basic Connect commands over an MBIM channel.
//
// A Client implements modem.Backend, so the state machines of package modem
// can drive a real function:
//
//	ch, _ := channel.New(transport, cfg)
//	c := client.New(ch)
//	m := modem.New(modem.StateConnected, nil)
//	res, err := modem.NewDisableMachine(m, c).Start(ctx)
//
// Track maps unsolicited indications of the function onto a modem record.
package client

package channel

import "sync/atomic"

// Metrics contains atomic counters of a channel.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// PacketSendCount indicates the number of packets written to the control pipe.
	PacketSendCount atomic.Uint64
	// PacketRecvCount indicates the number of packets read from the notification pipe.
	PacketRecvCount atomic.Uint64

	// TransactionCount indicates the number of completed transactions.
	TransactionCount atomic.Uint64
	// TransactionTimeoutCount indicates the number of transactions that timed out.
	TransactionTimeoutCount atomic.Uint64
	// TransactionErrCount indicates the number of transactions that failed otherwise.
	TransactionErrCount atomic.Uint64

	// StaleResponseCount indicates the number of responses without a pending transaction.
	StaleResponseCount atomic.Uint64
	// FragmentErrCount indicates the number of response fragments that could not be assembled.
	FragmentErrCount atomic.Uint64
	// IndicationCount indicates the number of indications received.
	IndicationCount atomic.Uint64
	// IndicationDropCount indicates the number of indications dropped on a full queue.
	IndicationDropCount atomic.Uint64
}

func (m *Metrics) incPacketSendCount() {
	m.PacketSendCount.Add(1)
}

func (m *Metrics) incPacketRecvCount() {
	m.PacketRecvCount.Add(1)
}

func (m *Metrics) incTransactionCount() {
	m.TransactionCount.Add(1)
}

func (m *Metrics) incTransactionTimeoutCount() {
	m.TransactionTimeoutCount.Add(1)
}

func (m *Metrics) incTransactionErrCount() {
	m.TransactionErrCount.Add(1)
}

func (m *Metrics) incStaleResponseCount() {
	m.StaleResponseCount.Add(1)
}

func (m *Metrics) incFragmentErrCount() {
	m.FragmentErrCount.Add(1)
}

func (m *Metrics) incIndicationCount() {
	m.IndicationCount.Add(1)
}

func (m *Metrics) incIndicationDropCount() {
	m.IndicationDropCount.Add(1)
}

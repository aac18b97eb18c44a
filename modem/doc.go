// Package modem drives the logical state of a mobile broadband modem.
//
// A Modem holds the current State and one operation slot per OpKind. The
// machines in this package (DisableMachine, EnableMachine, RegisterMachine and
// ConnectMachine) claim their slot when they start, change the modem state
// through a Backend, and release the slot when they finish. Completion is
// reported through a Result that is resolved exactly once.
//
// DisableMachine is re-entrant: it runs one dispatch step when it starts and
// one more for every state change it observes, reading the current state each
// time, until the modem reaches DISABLED.
package modem

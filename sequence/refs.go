package sequence

// Reference clauses reported by SequenceError.
//
// ncm1.0 clauses refer to the USB CDC NCM 1.0 class requests, mbim1.0 clauses
// to the MBIM 1.0 specification. A "#n" suffix selects the n-th requirement of
// the clause.
const (
	RefResetFunction      = "mbim1.0:6.2.1"
	RefGetNtbParameters   = "ncm1.0:6.2.1"
	RefSetNtbFormat       = "ncm1.0:6.2.5"
	RefSetNtbInputSize    = "ncm1.0:6.2.7"
	RefSetMaxDatagramSize = "ncm1.0:6.2.9"
	RefSetInterface       = "mbim1.0:6.5"

	RefOpen             = "mbim1.0:9.3.1"
	RefOpenTransaction  = "mbim1.0:9.4.1#1"
	RefOpenStatus       = "mbim1.0:9.4.1#2"
	RefClose            = "mbim1.0:9.3.2"
	RefCloseTransaction = "mbim1.0:9.4.2#1"
	RefCloseStatus      = "mbim1.0:9.4.2#2"
)

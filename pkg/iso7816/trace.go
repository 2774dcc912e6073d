package iso7816

// Transaction is one physical exchange: the bytes sent, the command they
// decode to (nil when they do not form a valid APDU) and the response.
type Transaction struct {
	Raw      []byte
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports whether the response status is a success.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is every exchange made for one logical command, continuations
// (GET RESPONSE, resend with corrected Le) included.
type Trace []Transaction

// Last returns the final exchange, nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess reports whether the final exchange succeeded, whatever the
// intermediate status words were.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Response returns the final response, nil for an empty trace.
func (t Trace) Response() *ResponseAPDU {
	if last := t.Last(); last != nil {
		return last.Response
	}
	return nil
}

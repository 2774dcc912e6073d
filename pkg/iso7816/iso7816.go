/*
Package iso7816 models the APDU exchange of ISO/IEC 7816-3 and 7816-4 and
drives it against a card.

A command APDU is a 4 byte header (CLA INS P1 P2) with an optional body
(Lc, data, Le). The card answers with optional data followed by the status
word SW1 SW2. Two status words ask the terminal to continue the exchange:

  - 61XX: XX more bytes are waiting and must be fetched with GET RESPONSE.
  - 6CXX: Le was wrong and the command must be sent again with Le = XX.

Client follows both automatically. Every physical exchange is printed to the
transcript as "< XX XX .." for the command and "> XX XX .." for the answer,
and recorded in a Trace. Only the final answer of a top level call is kept
as the last response.

	client := iso7816.NewClient(card)
	client.Log = os.Stdout

	trace, err := client.Execute(iso7816.Select([]byte("1PAY.SYS.DDF01"), true, true))
	if err != nil {
	    return err
	}

	res, err := iso7816.NewSelectResult(trace)
	if err != nil {
	    return err
	}
	fmt.Println(res.Describe())
*/
package iso7816

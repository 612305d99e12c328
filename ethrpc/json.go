package ethrpc

import "github.com/bytedance/sonic"

// jsonConfig encodes and decodes JSONRPC envelopes. Result payloads are left as
// raw messages and decoded by each call's intoFn.
var jsonConfig = sonic.Config{
	NoQuoteTextMarshaler:    false,
	NoValidateJSONMarshaler: true,
	NoValidateJSONSkip:      true,
}.Froze()

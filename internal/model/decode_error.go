package model

// Failure kinds reported for logs that could not be decoded.
const (
	FailureAbiNotFound    = "abi_not_found"
	FailureDecodeMismatch = "decode_mismatch"
	FailureInvalidLog     = "invalid_log"
)

// DecodeFailure records why a log was skipped.
type DecodeFailure struct {
	TxHash   string `json:"tx_hash"`
	LogIndex uint64 `json:"log_index"`
	Address  string `json:"address"`
	Topic0   string `json:"topic_signature"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

package packet

import "errors"

// Codec-level errors surfaced by builders and the decoder, per the error
// kinds enumerated for this library.
var (
	ErrOutOfMemory               = errors.New("packet: out of memory")
	ErrMalformedParameter        = errors.New("packet: malformed parameter")
	ErrMalformedRemainingLength  = errors.New("packet: malformed remaining length")
	ErrStringLengthError         = errors.New("packet: string exceeds 65535 bytes")
	ErrControlWrongType          = errors.New("packet: control packet has wrong type")
	ErrMalformedResponse         = errors.New("packet: malformed response")
	ErrResponseInvalidControl    = errors.New("packet: response has invalid control type")
	ErrMalformedFlags            = errors.New("packet: reserved flag bits are set")
	ErrProtocolViolationQosRange = errors.New("packet: qos out of range")
	ErrConnackForbiddenFlags     = errors.New("packet: connack reserved flag bits are set")
	ErrAckOfUnknown              = errors.New("packet: acknowledgement of unknown packet id")
)

// ReturnCode is a CONNACK return code (MQTT v3.1.1 §3.2.2.3).
type ReturnCode uint8

const (
	Accepted                    ReturnCode = 0x00
	UnacceptableProtocolVersion ReturnCode = 0x01
	IdentifierRejected          ReturnCode = 0x02
	ServerUnavailable           ReturnCode = 0x03
	BadUsernameOrPassword       ReturnCode = 0x04
	NotAuthorized               ReturnCode = 0x05
)

var returnCodeReason = map[ReturnCode]string{
	Accepted:                    "connection accepted",
	UnacceptableProtocolVersion: "unacceptable protocol version",
	IdentifierRejected:          "client identifier rejected",
	ServerUnavailable:           "server unavailable",
	BadUsernameOrPassword:       "malformed username or password",
	NotAuthorized:               "not authorized",
}

func (c ReturnCode) String() string {
	if s, ok := returnCodeReason[c]; ok {
		return s
	}
	return "unknown return code"
}

// SubscribeResult is a single SUBACK payload entry: either a granted QoS or
// the failure sentinel 0x80.
type SubscribeResult uint8

const SubscribeFailure SubscribeResult = 0x80

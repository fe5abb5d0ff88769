package pdu

import "github.com/nexusmb/gomodbus/merrors"

// Request is any MODBUS request PDU: constructed from typed fields
// (validated), decoded from bytes, and always able to re-encode itself and
// render a human-readable form.
type Request interface {
	FunctionCode() FunctionCode
	Encode() []byte
	String() string
}

// Response is any MODBUS response PDU, including ExceptionResponse.
type Response interface {
	FunctionCode() FunctionCode
	Encode() []byte
	String() string
}

func invalidArgument(field, reason string) error {
	return &merrors.InvalidArgument{Field: field, Reason: reason}
}

func invalidFrame(reason string) error {
	return &merrors.InvalidFrame{Reason: reason}
}

// DecodeRequest decodes a complete PDU (function code byte + payload) into
// its typed Request variant.
func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < 1 {
		return nil, invalidFrame("empty PDU")
	}
	fc := FunctionCode(buf[0])
	payload := buf[1:]
	switch fc {
	case ReadCoils:
		return decodeReadCoilsRequest(payload)
	case ReadDiscreteInputs:
		return decodeReadDiscreteInputsRequest(payload)
	case ReadHoldingRegisters:
		return decodeReadHoldingRegistersRequest(payload)
	case ReadInputRegisters:
		return decodeReadInputRegistersRequest(payload)
	case WriteSingleCoil:
		return decodeWriteSingleCoilRequest(payload)
	case WriteSingleRegister:
		return decodeWriteSingleRegisterRequest(payload)
	case WriteMultipleCoils:
		return decodeWriteMultipleCoilsRequest(payload)
	case WriteMultipleRegisters:
		return decodeWriteMultipleRegistersRequest(payload)
	case ReadFileRecord:
		return decodeReadFileRecordRequest(payload)
	case WriteFileRecord:
		return decodeWriteFileRecordRequest(payload)
	case ReadWriteMultipleRegisters:
		return decodeReadWriteMultipleRegistersRequest(payload)
	default:
		return nil, invalidFrame("unknown function code")
	}
}

// DecodeResponse decodes a complete response PDU. If the first byte carries
// the exception sentinel bit, the result is an *ExceptionResponse;
// otherwise it is decoded according to requestCode, the function code of
// the request this response answers (needed because the response payload
// shape for reads/writes cannot be told apart from the function code
// alone in every case, and because a response can't always recompute its
// own quantity from its wire bytes e.g. single-register requests).
func DecodeResponse(requestCode FunctionCode, buf []byte) (Response, error) {
	if len(buf) < 1 {
		return nil, invalidFrame("empty PDU")
	}
	fc := FunctionCode(buf[0])
	payload := buf[1:]

	if fc.IsException() {
		return decodeExceptionResponse(fc, payload)
	}

	switch requestCode {
	case ReadCoils:
		return decodeReadCoilsResponse(payload)
	case ReadDiscreteInputs:
		return decodeReadDiscreteInputsResponse(payload)
	case ReadHoldingRegisters:
		return decodeReadHoldingRegistersResponse(payload)
	case ReadInputRegisters:
		return decodeReadInputRegistersResponse(payload)
	case WriteSingleCoil:
		return decodeWriteSingleCoilResponse(payload)
	case WriteSingleRegister:
		return decodeWriteSingleRegisterResponse(payload)
	case WriteMultipleCoils:
		return decodeWriteMultipleCoilsResponse(payload)
	case WriteMultipleRegisters:
		return decodeWriteMultipleRegistersResponse(payload)
	case ReadFileRecord:
		return decodeReadFileRecordResponse(payload)
	case WriteFileRecord:
		return decodeWriteFileRecordResponse(payload)
	case ReadWriteMultipleRegisters:
		return decodeReadWriteMultipleRegistersResponse(payload)
	default:
		return nil, invalidFrame("unknown function code")
	}
}

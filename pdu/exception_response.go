package pdu

import "fmt"

// ExceptionResponse is returned in place of a normal response whenever a
// slave reports a MODBUS exception. Its function code is the request's
// function code with the exception sentinel bit (0x80) set.
type ExceptionResponse struct {
	RequestCode FunctionCode
	Code        ExceptionCode
}

func (r *ExceptionResponse) FunctionCode() FunctionCode { return r.RequestCode.AsException() }

func (r *ExceptionResponse) Encode() []byte {
	return []byte{byte(r.RequestCode.AsException()), byte(r.Code)}
}

func (r *ExceptionResponse) String() string {
	return fmt.Sprintf("ExceptionResponse{RequestCode: %s, Code: %s}", r.RequestCode, r.Code)
}

// Error lets an *ExceptionResponse be handled directly as an error.
func (r *ExceptionResponse) Error() string {
	return fmt.Sprintf("modbus: %s: %s", r.RequestCode, r.Code)
}

func decodeExceptionResponse(fc FunctionCode, payload []byte) (*ExceptionResponse, error) {
	c := newCursor(payload)
	code, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return &ExceptionResponse{RequestCode: fc.Base(), Code: ExceptionCode(code)}, nil
}
